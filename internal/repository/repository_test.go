package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

var visaCols = []string{
	"id", "name", "country", "purpose", "category", "entry_type", "currency",
	"retail_price", "agent_standard_price",
	"stay_duration_type", "stay_duration_fix", "stay_duration_min", "stay_duration_max",
	"validity_type", "validity_fix", "validity_min", "validity_max",
	"processing_time_type", "processing_time_fix", "processing_time_min", "processing_time_max",
	"created_at", "updated_at",
}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		raw.Close()
	})
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func visaRow(id string, retail int64, agent interface{}) []driver.Value {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, "Japan Tourist", "Japan", nil, nil, "Single", "IDR",
		retail, agent,
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		"range", nil, 3, 5,
		now, now,
	}
}

var ctx = context.Background()

var errMalformedUUID = &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

func TestVisaRepository_GetPricingView(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVisaRepository(db)

	cols := append(append([]string{}, visaCols...), "special_price_count", "active_campaign_count")
	row := append(visaRow("v1", 1_000_000, int64(900_000)), 2, 1)
	mock.ExpectQuery(`FROM visas v\s+LEFT JOIN .* WHERE 1=1 AND \(v.name ILIKE \$2 .*v.country = ANY\(\$3\).* AND v.retail_price >= \$4 ORDER BY v.country, v.name`).
		WithArgs("2025-06-01", "%jap%", sqlmock.AnyArg(), int64(100)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	min := int64(100)
	views, err := repo.GetPricingView(ctx, models.VisaFilter{Search: "jap", Countries: []string{"Japan"}, MinPrice: &min},
		time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "v1", views[0].ID)
	assert.Equal(t, int64(900_000), *views[0].AgentStandardPrice)
	assert.Equal(t, 2, views[0].SpecialPriceCount)
	assert.Equal(t, 1, views[0].ActiveCampaignCount)
	assert.Equal(t, 5, views[0].ProcessingDays())
}

func TestVisaRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVisaRepository(db)

	mock.ExpectQuery(`FROM visas v WHERE v.id = \$1`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(visaCols))

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestVisaRepository_MalformedIDIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVisaRepository(db)

	mock.ExpectQuery(`FROM visas v WHERE v.id = \$1`).WithArgs("abc").WillReturnError(errMalformedUUID)
	mock.ExpectQuery(`UPDATE visas v SET`).WithArgs("abc", sqlmock.AnyArg(), nil).WillReturnError(errMalformedUUID)

	_, err := repo.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	price := int64(1)
	_, err = repo.UpdatePrice(ctx, "abc", models.PriceEdit{RetailPrice: &price})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestVisaRepository_GetByIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVisaRepository(db)

	mock.ExpectQuery(`WHERE v.id::text = ANY\(\$1\)`).WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(visaCols).AddRow(visaRow("v1", 50_000, nil)...))

	visas, err := repo.GetByIDs(ctx, []string{"v1", "v2"})
	require.NoError(t, err)
	require.Len(t, visas, 1)
	assert.Nil(t, visas[0].AgentStandardPrice)

	none, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestVisaRepository_UpdatePrice(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVisaRepository(db)

	price := int64(0)
	mock.ExpectQuery(`UPDATE visas v SET`).WithArgs("v1", price, nil).
		WillReturnRows(sqlmock.NewRows(visaCols).AddRow(visaRow("v1", 0, nil)...))

	v, err := repo.UpdatePrice(ctx, "v1", models.PriceEdit{RetailPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.RetailPrice)
}

func TestVisaRepository_ApplyPriceUpdates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVisaRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE visas SET retail_price = \$1`).WithArgs(int64(0), "v1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE visas SET agent_standard_price = \$1`).WithArgs(int64(10), "v2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyPriceUpdates(ctx, []models.PriceUpdate{
		{VisaID: "v1", Target: models.TargetRetail, Value: 0},
		{VisaID: "v2", Target: models.TargetAgentStandard, Value: 10},
	})
	require.NoError(t, err)
}

func TestVisaRepository_ApplyPriceUpdatesRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVisaRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE visas SET retail_price`).WithArgs(int64(5), "v1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE visas SET retail_price`).WithArgs(int64(5), "v2").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := repo.ApplyPriceUpdates(ctx, []models.PriceUpdate{
		{VisaID: "v1", Target: models.TargetRetail, Value: 5},
		{VisaID: "v2", Target: models.TargetRetail, Value: 5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock")
}

func TestVisaRepository_ApplyPriceUpdatesRejectsUnknownColumn(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVisaRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.ApplyPriceUpdates(ctx, []models.PriceUpdate{{VisaID: "v1", Target: "id", Value: 1}})
	assert.Error(t, err)
}

func TestVisaRepository_Options(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVisaRepository(db)

	mock.ExpectQuery(`SELECT DISTINCT country`).WillReturnRows(sqlmock.NewRows([]string{"country"}).AddRow("Japan").AddRow("Korea"))
	mock.ExpectQuery(`SELECT DISTINCT entry_type`).WillReturnRows(sqlmock.NewRows([]string{"entry_type"}).AddRow("Single"))

	opts, err := repo.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Japan", "Korea"}, opts.Countries)
	assert.Equal(t, []string{"Single"}, opts.Types)
}

func TestAgentRepository_Search(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAgentRepository(db)

	mock.ExpectQuery(`FROM agents`).WithArgs("budi", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "company_name"}).AddRow("a1", "Budi", "PT Jalan"))

	agents, err := repo.Search(ctx, "  budi ", 10)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "PT Jalan", *agents[0].CompanyName)
}

func TestAgentRepository_SearchCanceled(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAgentRepository(db)

	mock.ExpectQuery(`FROM agents`).WillReturnError(context.Canceled)

	_, err := repo.Search(ctx, "b", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

var spCols = []string{"id", "visa_id", "agent_id", "price", "notes", "created_at", "last_updated_at"}

func TestSpecialPriceRepository_ListByVisa(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSpecialPriceRepository(db)

	cols := append(append([]string{}, spCols...), "agent_name", "agent_company_name")
	mock.ExpectQuery(`LEFT JOIN agents a ON a.id = sp.agent_id`).WithArgs("v1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", "v1", "a1", int64(800), nil, nil, nil, "Budi", nil).
			AddRow("s2", "v1", nil, int64(700), nil, nil, nil, nil, nil))

	prices, err := repo.ListByVisa(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "Budi", prices[0].Agent.Name)
	assert.Equal(t, models.UnknownAgentName, prices[1].Agent.Name)
}

func TestSpecialPriceRepository_UpsertUpdatesExistingPair(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSpecialPriceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM agent_special_prices WHERE visa_id = \$1 AND agent_id = \$2 FOR UPDATE`).
		WithArgs("v1", "a1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s1"))
	mock.ExpectQuery(`UPDATE agent_special_prices`).WithArgs("s1", int64(750), nil).
		WillReturnRows(sqlmock.NewRows(spCols).AddRow("s1", "v1", "a1", int64(750), nil, nil, nil))
	mock.ExpectCommit()

	sp, err := repo.Upsert(ctx, models.SpecialPriceInput{VisaID: "v1", AgentID: "a1", Price: 750})
	require.NoError(t, err)
	assert.Equal(t, "s1", sp.ID)
	assert.Equal(t, int64(750), sp.Price)
}

func TestSpecialPriceRepository_UpsertInsertsNewPair(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSpecialPriceRepository(db)

	notes := "loyal"
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM agent_special_prices`).WithArgs("v1", "a2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO agent_special_prices`).WithArgs("v1", "a2", int64(600), notes).
		WillReturnRows(sqlmock.NewRows(spCols).AddRow("s9", "v1", "a2", int64(600), notes, nil, nil))
	mock.ExpectCommit()

	sp, err := repo.Upsert(ctx, models.SpecialPriceInput{VisaID: "v1", AgentID: "a2", Price: 600, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "s9", sp.ID)
}

func TestSpecialPriceRepository_UpsertRollsBackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSpecialPriceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM agent_special_prices`).WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	_, err := repo.Upsert(ctx, models.SpecialPriceInput{VisaID: "v1", AgentID: "a2", Price: 600})
	assert.Error(t, err)
}

func TestSpecialPriceRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSpecialPriceRepository(db)

	mock.ExpectExec(`DELETE FROM agent_special_prices`).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM agent_special_prices`).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(ctx, "s1"))
	assert.ErrorIs(t, repo.Delete(ctx, "gone"), utils.ErrNotFound)
}

func TestSpecialPriceRepository_MalformedIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSpecialPriceRepository(db)

	mock.ExpectExec(`DELETE FROM agent_special_prices`).WithArgs("abc").WillReturnError(errMalformedUUID)
	mock.ExpectQuery(`WHERE sp.visa_id = \$1`).WithArgs("abc").WillReturnError(errMalformedUUID)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM agent_special_prices`).WithArgs("v1", "a9").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO agent_special_prices`).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(ctx, "abc"), utils.ErrNotFound)

	prices, err := repo.ListByVisa(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, prices)

	_, err = repo.Upsert(ctx, models.SpecialPriceInput{VisaID: "v1", AgentID: "a9", Price: 600})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestSpecialPriceRepository_ListByAgent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSpecialPriceRepository(db)

	mock.ExpectQuery(`WHERE agent_id = \$1`).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"visa_id", "price", "notes"}).AddRow("v1", int64(800), nil))

	out, err := repo.ListByAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, []models.AgentOverride{{VisaID: "v1", Price: 800}}, out)
}

var campaignCols = []string{"id", "visa_id", "name", "start_date", "end_date", "is_active", "rules", "created_at", "updated_at"}

func TestCampaignRepository_ListByVisa(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)

	now := time.Now()
	mock.ExpectQuery(`FROM visa_campaigns WHERE visa_id = \$1 ORDER BY created_at, id`).WithArgs("v1").
		WillReturnRows(sqlmock.NewRows(campaignCols).
			AddRow("c1", "v1", "War", nil, nil, true, []byte(`[{"min":3,"max":5,"price":500000}]`), now, now))

	out, err := repo.ListByVisa(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.Tiers{{Min: 3, Max: 5, Price: 500_000}}, out[0].Rules)
}

func TestCampaignRepository_UpsertInsertSendsDateLiterals(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)

	wib := time.FixedZone("WIB", 7*3600)
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, wib)
	c := &models.Campaign{VisaID: "v1", Name: "Promo", StartDate: &start, IsActive: true, Rules: models.Tiers{{Min: 1, Max: 2, Price: 10}}}

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO visa_campaigns`).
		WithArgs("v1", "Promo", "2025-07-01", nil, true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(campaignCols).AddRow("c1", "v1", "Promo", start, nil, true, []byte(`[{"min":1,"max":2,"price":10}]`), now, now))

	out, err := repo.Upsert(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "c1", out.ID)
}

func TestCampaignRepository_UpsertUpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)

	mock.ExpectQuery(`UPDATE visa_campaigns SET`).WillReturnRows(sqlmock.NewRows(campaignCols))

	_, err := repo.Upsert(ctx, &models.Campaign{ID: "gone", VisaID: "v1", Name: "x"})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestCampaignRepository_DeactivateExpired(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)

	mock.ExpectExec(`UPDATE visa_campaigns SET is_active = false`).WithArgs("2025-06-02").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeactivateExpired(ctx, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCampaignRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)

	mock.ExpectExec(`DELETE FROM visa_campaigns`).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, "c1"), utils.ErrNotFound)
}

func TestCampaignRepository_MalformedIDIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)

	mock.ExpectExec(`DELETE FROM visa_campaigns`).WithArgs("abc").WillReturnError(errMalformedUUID)
	assert.ErrorIs(t, repo.Delete(ctx, "abc"), utils.ErrNotFound)
}
