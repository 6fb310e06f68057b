package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/alexey192/calendarit/internal/models"
	"github.com/alexey192/calendarit/internal/repository"
	"github.com/alexey192/calendarit/tests/mocks"
)

// EventHandlerTestSuite is the test suite for EventHandler
type EventHandlerTestSuite struct {
	suite.Suite
	echo          *echo.Echo
	handler       *EventHandler
	mockEventRepo *mocks.MockEventRepository
}

// SetupTest runs before each test
func (s *EventHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockEventRepo = new(mocks.MockEventRepository)
	s.handler = NewEventHandler(s.mockEventRepo)
}

// TearDownTest runs after each test
func (s *EventHandlerTestSuite) TearDownTest() {
	s.mockEventRepo.AssertExpectations(s.T())
}

// TestEventHandlerTestSuite runs the test suite
func TestEventHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(EventHandlerTestSuite))
}

func (s *EventHandlerTestSuite) listContext(uid, query string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/users/"+uid+"/events"+query, nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.SetPath("/api/users/:uid/events")
	c.SetParamNames("uid")
	c.SetParamValues(uid)
	return c, rec
}

func (s *EventHandlerTestSuite) seenContext(id string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPatch, "/api/events/"+id+"/seen", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.SetPath("/api/events/:id/seen")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func (s *EventHandlerTestSuite) TestListByUser_Success() {
	events := []models.Event{
		{ID: "e1", UserID: "user-1", Title: "Jazz Night", Category: models.CategoryMusic},
		{ID: "e2", UserID: "user-1", Title: "Standup", Category: models.CategoryWork},
	}
	s.mockEventRepo.On("ListByUser", mock.Anything, "user-1", 50, 0).Return(events, int64(2), nil)

	c, rec := s.listContext("user-1", "")
	s.NoError(s.handler.ListByUser(c))

	s.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    []models.Event  `json:"data"`
		Meta    map[string]int  `json:"meta"`
	}
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Len(resp.Data, 2)
	s.Equal(2, resp.Meta["total"])
	s.Equal(50, resp.Meta["limit"])
}

func (s *EventHandlerTestSuite) TestListByUser_PaginationParams() {
	s.mockEventRepo.On("ListByUser", mock.Anything, "user-1", 10, 20).
		Return([]models.Event{}, int64(0), nil)

	c, rec := s.listContext("user-1", "?limit=10&offset=20")
	s.NoError(s.handler.ListByUser(c))

	s.Equal(http.StatusOK, rec.Code)
}

func (s *EventHandlerTestSuite) TestListByUser_LimitCapped() {
	s.mockEventRepo.On("ListByUser", mock.Anything, "user-1", maxEventPageSize, 0).
		Return([]models.Event{}, int64(0), nil)

	c, rec := s.listContext("user-1", "?limit=100000")
	s.NoError(s.handler.ListByUser(c))

	s.Equal(http.StatusOK, rec.Code)
}

func (s *EventHandlerTestSuite) TestListByUser_InvalidLimit() {
	c, rec := s.listContext("user-1", "?limit=banana")
	s.NoError(s.handler.ListByUser(c))

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *EventHandlerTestSuite) TestListByUser_NegativeOffset() {
	c, rec := s.listContext("user-1", "?offset=-5")
	s.NoError(s.handler.ListByUser(c))

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *EventHandlerTestSuite) TestMarkSeen_Success() {
	s.mockEventRepo.On("MarkSeen", mock.Anything, "e1").Return(nil)

	c, rec := s.seenContext("e1")
	s.NoError(s.handler.MarkSeen(c))

	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *EventHandlerTestSuite) TestMarkSeen_NotFound() {
	s.mockEventRepo.On("MarkSeen", mock.Anything, "ghost").Return(repository.ErrNotFound)

	c, rec := s.seenContext("ghost")
	s.NoError(s.handler.MarkSeen(c))

	s.Equal(http.StatusNotFound, rec.Code)
}
