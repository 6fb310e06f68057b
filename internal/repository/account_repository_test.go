package repository

import (
	"context"
	"testing"

	"github.com/alexey192/calendarit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AccountRepositoryTestSuite is the test suite for AccountRepository
type AccountRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo AccountRepository
}

// SetupSuite runs once before all tests
func (s *AccountRepositoryTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	err = db.AutoMigrate(&models.MailAccount{}, &models.Event{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewAccountRepository(db)
}

// TearDownSuite runs once after all tests
func (s *AccountRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test
func (s *AccountRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM mail_accounts")
}

// TestAccountRepositoryTestSuite runs the test suite
func TestAccountRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(AccountRepositoryTestSuite))
}

func (s *AccountRepositoryTestSuite) createTestAccount(id, userID, email, cursor string) *models.MailAccount {
	account := &models.MailAccount{
		ID:           id,
		UserID:       userID,
		Email:        email,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		SyncCursor:   cursor,
	}
	require.NoError(s.T(), s.repo.Create(context.Background(), account))
	return account
}

// ==================== Create Tests ====================

func (s *AccountRepositoryTestSuite) TestCreate_Success() {
	account := &models.MailAccount{
		ID:          "acc-1",
		UserID:      "user-1",
		Email:       "alice@example.com",
		AccessToken: "token",
	}

	err := s.repo.Create(context.Background(), account)

	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), account.CreatedAt)
}

func (s *AccountRepositoryTestSuite) TestCreate_DuplicateEmail() {
	s.createTestAccount("acc-1", "user-1", "alice@example.com", "100")

	dup := &models.MailAccount{
		ID:          "acc-2",
		UserID:      "user-2",
		Email:       "alice@example.com",
		AccessToken: "token",
	}
	err := s.repo.Create(context.Background(), dup)

	assert.ErrorIs(s.T(), err, ErrDuplicateEntry)
}

// ==================== Lookup Tests ====================

func (s *AccountRepositoryTestSuite) TestGetByEmail_Found() {
	s.createTestAccount("acc-1", "user-1", "alice@example.com", "100")

	account, err := s.repo.GetByEmail(context.Background(), "alice@example.com")

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "acc-1", account.ID)
	assert.Equal(s.T(), "user-1", account.UserID)
	assert.Equal(s.T(), "100", account.SyncCursor)
}

func (s *AccountRepositoryTestSuite) TestGetByEmail_NotFound() {
	_, err := s.repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *AccountRepositoryTestSuite) TestGetByID_ScopedToOwner() {
	s.createTestAccount("acc-1", "user-1", "alice@example.com", "100")

	_, err := s.repo.GetByID(context.Background(), "user-2", "acc-1")
	assert.ErrorIs(s.T(), err, ErrNotFound)

	account, err := s.repo.GetByID(context.Background(), "user-1", "acc-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice@example.com", account.Email)
}

// ==================== Cursor Tests ====================

func (s *AccountRepositoryTestSuite) TestAdvanceCursor_Success() {
	s.createTestAccount("acc-1", "user-1", "alice@example.com", "100")

	err := s.repo.AdvanceCursor(context.Background(), "acc-1", "100", "250")
	require.NoError(s.T(), err)

	account, err := s.repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "250", account.SyncCursor)
	assert.Equal(s.T(), int64(1), account.CursorVersion)
}

func (s *AccountRepositoryTestSuite) TestAdvanceCursor_StaleRead() {
	s.createTestAccount("acc-1", "user-1", "alice@example.com", "100")

	// First pass wins the compare-and-swap.
	require.NoError(s.T(), s.repo.AdvanceCursor(context.Background(), "acc-1", "100", "250"))

	// Second pass read "100" before the first advanced; its write must fail.
	err := s.repo.AdvanceCursor(context.Background(), "acc-1", "100", "300")
	assert.ErrorIs(s.T(), err, ErrStaleCursor)

	account, err := s.repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "250", account.SyncCursor)
}

func (s *AccountRepositoryTestSuite) TestAdvanceCursor_UnknownAccount() {
	err := s.repo.AdvanceCursor(context.Background(), "missing", "100", "200")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *AccountRepositoryTestSuite) TestSeedCursor_Unconditional() {
	s.createTestAccount("acc-1", "user-1", "alice@example.com", "100")

	// Reseeding ignores the current value; a fresh watch resets the baseline.
	require.NoError(s.T(), s.repo.SeedCursor(context.Background(), "acc-1", "900"))

	account, err := s.repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "900", account.SyncCursor)
}

// ==================== Token Tests ====================

func (s *AccountRepositoryTestSuite) TestUpdateTokens_KeepsRefreshWhenEmpty() {
	s.createTestAccount("acc-1", "user-1", "alice@example.com", "100")

	err := s.repo.UpdateTokens(context.Background(), "acc-1", "new-access", "")
	require.NoError(s.T(), err)

	account, err := s.repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "new-access", account.AccessToken)
	assert.Equal(s.T(), "refresh-token", account.RefreshToken)
}

func (s *AccountRepositoryTestSuite) TestUpdateTokens_NotFound() {
	err := s.repo.UpdateTokens(context.Background(), "missing", "a", "b")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}
