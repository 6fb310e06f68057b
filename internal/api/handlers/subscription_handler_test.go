package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	apperrors "github.com/alexey192/calendarit/internal/errors"
	"github.com/alexey192/calendarit/tests/mocks"
)

// SubscriptionHandlerTestSuite is the test suite for SubscriptionHandler
type SubscriptionHandlerTestSuite struct {
	suite.Suite
	echo        *echo.Echo
	handler     *SubscriptionHandler
	mockService *mocks.MockSubscriptionService
}

// SetupTest runs before each test
func (s *SubscriptionHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockService = new(mocks.MockSubscriptionService)
	s.handler = NewSubscriptionHandler(s.mockService)
}

// TearDownTest runs after each test
func (s *SubscriptionHandlerTestSuite) TearDownTest() {
	s.mockService.AssertExpectations(s.T())
}

// TestSubscriptionHandlerTestSuite runs the test suite
func TestSubscriptionHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionHandlerTestSuite))
}

func (s *SubscriptionHandlerTestSuite) createContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	return c, rec
}

func (s *SubscriptionHandlerTestSuite) TestSubscribe_Success() {
	s.mockService.On("Subscribe", mock.Anything, "user-1", "acct-1").Return("4242", nil)

	c, rec := s.createContext(`{"uid": "user-1", "accountId": "acct-1"}`)
	s.NoError(s.handler.Subscribe(c))

	s.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			HistoryID string `json:"historyId"`
		} `json:"data"`
	}
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal("4242", resp.Data.HistoryID)
}

func (s *SubscriptionHandlerTestSuite) TestSubscribe_MissingUID() {
	c, rec := s.createContext(`{"accountId": "acct-1"}`)
	s.NoError(s.handler.Subscribe(c))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "uid is required")
}

func (s *SubscriptionHandlerTestSuite) TestSubscribe_MissingAccountID() {
	c, rec := s.createContext(`{"uid": "user-1"}`)
	s.NoError(s.handler.Subscribe(c))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "accountId is required")
}

func (s *SubscriptionHandlerTestSuite) TestSubscribe_InvalidBody() {
	c, rec := s.createContext(`{not json`)
	s.NoError(s.handler.Subscribe(c))

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *SubscriptionHandlerTestSuite) TestSubscribe_UnknownAccount() {
	s.mockService.On("Subscribe", mock.Anything, "user-1", "ghost").Return("", apperrors.ErrAccountNotFound)

	c, rec := s.createContext(`{"uid": "user-1", "accountId": "ghost"}`)
	s.NoError(s.handler.Subscribe(c))

	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "account not found")
}

func (s *SubscriptionHandlerTestSuite) TestSubscribe_ProviderFailure() {
	s.mockService.On("Subscribe", mock.Anything, "user-1", "acct-1").
		Return("", errors.New("watch registration refused"))

	c, rec := s.createContext(`{"uid": "user-1", "accountId": "acct-1"}`)
	s.NoError(s.handler.Subscribe(c))

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Contains(rec.Body.String(), "watch registration refused")
}
