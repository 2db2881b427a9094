package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/lead-capture/internal/entity"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) CreateSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockLeadRepository) Insert(ctx context.Context, lead *entity.Lead) (int64, error) {
	args := m.Called(ctx, lead)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, limit int) ([]*entity.Lead, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func newSQLiteStore(t *testing.T) *LeadStore {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "leads.db")

	db, dialect, err := NewDBConnection("", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewLeadStore(NewLeadRepository(db, dialect), NewCSVLog(filepath.Join(dir, "leads.csv")), dbPath)
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

func fakeContactLead() *entity.Lead {
	return &entity.Lead{
		Topic:   entity.TopicContact,
		Name:    gofakeit.Name(),
		Email:   gofakeit.Email(),
		Message: gofakeit.Sentence(12),
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	store := newSQLiteStore(t)

	require.NoError(t, store.Initialize(context.Background()))
	require.NoError(t, store.Initialize(context.Background()))

	raw, err := os.ReadFile(store.Log.Path)
	require.NoError(t, err)
	assert.Equal(t, "id,topic,name,email,phone,company,sanctioned_load,monthly_kwh,message,created_at\n", string(raw))

	st := store.Status(context.Background())
	assert.True(t, st.DBExists)
	assert.True(t, st.CSVExists)
}

func TestSaveWritesBothSinks(t *testing.T) {
	store := newSQLiteStore(t)
	store.now = func() time.Time {
		return time.Date(2026, 10, 18, 9, 30, 15, 987654321, time.FixedZone("IST", 5*3600+1800))
	}

	lead := &entity.Lead{
		Topic:          entity.TopicOpenAccess,
		Name:           "Acme Ltd / John",
		Email:          "john@acme.io",
		Phone:          "+91 98765 43210",
		Company:        "Acme Ltd",
		SanctionedLoad: "1000",
		MonthlyKWh:     "350000",
		Message:        "[Open Access Inquiry]\nCallback: Yes",
	}

	require.NoError(t, store.Save(context.Background(), lead))

	assert.Equal(t, int64(1), lead.ID)
	assert.Equal(t, "2026-10-18T04:00:15Z", lead.CreatedAtString())

	stored, err := store.FindByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.Name, stored.Name)
	assert.Equal(t, lead.Email, stored.Email)
	assert.Equal(t, lead.Company, stored.Company)
	assert.Equal(t, lead.Message, stored.Message)
	assert.True(t, lead.CreatedAt.Equal(stored.CreatedAt))

	records, err := store.Log.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0]["id"])
	assert.Equal(t, "open-access", records[0]["topic"])
	assert.Equal(t, "[Open Access Inquiry]\nCallback: Yes", records[0]["message"])
	assert.Equal(t, "2026-10-18T04:00:15Z", records[0]["created_at"])
}

func TestSaveRoundTripBetweenSinks(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, fakeContactLead()))
	}

	leads, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, leads, 5)
	assert.Equal(t, int64(5), leads[0].ID)

	records, err := store.Log.Records()
	require.NoError(t, err)
	byID := make(map[string]map[string]string)
	for _, rec := range records {
		byID[rec["id"]] = rec
	}

	for _, l := range leads {
		rec, ok := byID[strconv.FormatInt(l.ID, 10)]
		require.True(t, ok, "lead %d missing from csv", l.ID)
		assert.Equal(t, string(l.Topic), rec["topic"])
		assert.Equal(t, l.Name, rec["name"])
		assert.Equal(t, l.Email, rec["email"])
		assert.Equal(t, l.CreatedAtString(), rec["created_at"])
	}
}

func TestConcurrentSavesGetDistinctIDs(t *testing.T) {
	store := newSQLiteStore(t)

	const n = 20
	ids := make(chan int64, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lead := fakeContactLead()
			if err := store.Save(context.Background(), lead); err == nil {
				ids <- lead.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.Positive(t, id)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	records, err := store.Log.Records()
	require.NoError(t, err)
	assert.Len(t, records, n)
}

func TestSaveKeepsLogWhenInsertFails(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(int64(0), errors.New("database is locked"))

	csvLog := NewCSVLog(filepath.Join(t.TempDir(), "leads.csv"))
	require.NoError(t, csvLog.EnsureHeader())

	store := NewLeadStore(repo, csvLog, "")
	lead := fakeContactLead()

	require.NoError(t, store.Save(context.Background(), lead))
	assert.Zero(t, lead.ID)

	records, err := csvLog.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0]["id"])
	assert.Equal(t, lead.Email, records[0]["email"])
}

func TestSaveFailsWhenBothSinksFail(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk I/O error"))

	// um diretório no lugar do arquivo faz o append falhar
	store := NewLeadStore(repo, NewCSVLog(t.TempDir()), "")

	err := store.Save(context.Background(), fakeContactLead())
	assert.ErrorIs(t, err, ErrNotPersisted)
}

func TestFindByIDNotFound(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := store.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestRebind(t *testing.T) {
	pg := &LeadRepository{Dialect: DialectPostgres}
	lite := &LeadRepository{Dialect: DialectSQLite}

	q := "SELECT id FROM leads WHERE id = ? AND topic = ? LIMIT ?"
	assert.Equal(t, "SELECT id FROM leads WHERE id = $1 AND topic = $2 LIMIT $3", pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}
