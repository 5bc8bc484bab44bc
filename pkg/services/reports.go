package services

import (
	"context"
	"sort"
	"time"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/permissions"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const optionWarningWindow = 7 * 24 * time.Hour

// DashboardReport is the landing-page summary.
type DashboardReport struct {
	Clients               int64                    `json:"clients"`
	Venues                int64                    `json:"venues"`
	Proposals             int64                    `json:"proposals"`
	ProposalsByStatus     map[string]int64         `json:"proposalsByStatus"`
	Bookings              int64                    `json:"bookings"`
	BookingsByStatus      map[string]int64         `json:"bookingsByStatus"`
	TotalBookedValue      decimal.Decimal          `json:"totalBookedValue"`
	PipelineValue         decimal.Decimal          `json:"pipelineValue"`
	CommissionPaid        decimal.Decimal          `json:"commissionPaid"`
	CommissionOutstanding decimal.Decimal          `json:"commissionOutstanding"`
	ExpiringOptions       []models.Booking         `json:"expiringOptions"`
	OverdueClaims         []models.CommissionClaim `json:"overdueClaims"`
	GeneratedAt           time.Time                `json:"generatedAt"`
}

// PipelineStage is one booking status with its totals.
type PipelineStage struct {
	Status     models.BookingStatus `json:"status"`
	Count      int64                `json:"count"`
	TotalValue decimal.Decimal      `json:"totalValue"`
	Commission decimal.Decimal      `json:"commission"`
}

// PipelineReport lists every workflow stage in order.
type PipelineReport struct {
	Stages     []PipelineStage `json:"stages"`
	TotalValue decimal.Decimal `json:"totalValue"`
	Commission decimal.Decimal `json:"commission"`
}

// ClaimStatusTotal groups claims by their effective status.
type ClaimStatusTotal struct {
	Status models.ClaimStatus `json:"status"`
	Count  int64              `json:"count"`
	Amount decimal.Decimal    `json:"amount"`
}

// VenueCommission sums bookings and claims for one venue.
type VenueCommission struct {
	VenueID            string          `json:"venueId"`
	VenueName          string          `json:"venueName"`
	Bookings           int64           `json:"bookings"`
	BookedValue        decimal.Decimal `json:"bookedValue"`
	ExpectedCommission decimal.Decimal `json:"expectedCommission"`
	ClaimedCommission  decimal.Decimal `json:"claimedCommission"`
}

// CommissionTotals are the grand totals of a commission report.
type CommissionTotals struct {
	BookedValue        decimal.Decimal `json:"bookedValue"`
	ExpectedCommission decimal.Decimal `json:"expectedCommission"`
	Claimed            decimal.Decimal `json:"claimed"`
	Paid               decimal.Decimal `json:"paid"`
	Outstanding        decimal.Decimal `json:"outstanding"`
}

// CommissionReport covers bookings and claims created within [From, To).
type CommissionReport struct {
	From     *time.Time         `json:"from"`
	To       *time.Time         `json:"to"`
	ByStatus []ClaimStatusTotal `json:"byStatus"`
	ByVenue  []VenueCommission  `json:"byVenue"`
	Totals   CommissionTotals   `json:"totals"`
}

// ReportService aggregates figures. Sums are done in decimal on the Go side
// so every driver rounds the same way.
type ReportService struct {
	db  database.DatabaseInterface
	now func() time.Time
}

func NewReportService(db database.DatabaseInterface) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

// reportScope limits rows to the caller's own unless they may see everything.
func reportScope(user *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if permissions.HasPermission(user, permissions.ReportsAll) {
			return db
		}
		return db.Where("created_by_id = ?", user.ID)
	}
}

type statusCount struct {
	Status string
	Count  int64
}

func countByStatus(tx *gorm.DB, model interface{}, user *models.User) (map[string]int64, int64, error) {
	var rows []statusCount
	err := tx.Model(model).Scopes(reportScope(user)).
		Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]int64, len(rows))
	var total int64
	for _, r := range rows {
		out[r.Status] = r.Count
		total += r.Count
	}
	return out, total, nil
}

func (s *ReportService) Dashboard(ctx context.Context, user *models.User) (*DashboardReport, error) {
	db := s.db.DB(ctx)
	now := s.now()
	report := &DashboardReport{
		ProposalsByStatus: map[string]int64{},
		BookingsByStatus:  map[string]int64{},
		ExpiringOptions:   []models.Booking{},
		OverdueClaims:     []models.CommissionClaim{},
		GeneratedAt:       now.UTC(),
	}

	if err := db.Model(&models.Client{}).Scopes(reportScope(user)).Count(&report.Clients).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	if err := db.Model(&models.Venue{}).Scopes(reportScope(user)).Count(&report.Venues).Error; err != nil {
		return nil, database.TranslateError(err)
	}

	var err error
	if report.ProposalsByStatus, report.Proposals, err = countByStatus(db, &models.Proposal{}, user); err != nil {
		return nil, database.TranslateError(err)
	}
	for _, st := range []models.ProposalStatus{models.ProposalStatusDraft, models.ProposalStatusSent} {
		if _, ok := report.ProposalsByStatus[string(st)]; !ok {
			report.ProposalsByStatus[string(st)] = 0
		}
	}

	var bookings []models.Booking
	if err := db.Scopes(reportScope(user)).Select("id", "status", "total_value", "commission_amount").Find(&bookings).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	for _, st := range models.BookingStatuses() {
		report.BookingsByStatus[string(st)] = 0
	}
	for _, b := range bookings {
		report.Bookings++
		report.BookingsByStatus[string(b.Status)]++
		switch b.Status {
		case models.BookingStatusConfirmed, models.BookingStatusCompleted:
			report.TotalBookedValue = report.TotalBookedValue.Add(b.TotalValue)
		}
		if b.Status != models.BookingStatusCompleted {
			report.PipelineValue = report.PipelineValue.Add(b.TotalValue)
		}
	}

	var claims []models.CommissionClaim
	if err := db.Scopes(reportScope(user)).Preload("Booking").Find(&claims).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	for _, c := range claims {
		switch c.EffectiveStatusAt(now) {
		case models.ClaimStatusPaid:
			report.CommissionPaid = report.CommissionPaid.Add(c.Amount)
		case models.ClaimStatusOverdue:
			report.CommissionOutstanding = report.CommissionOutstanding.Add(c.Amount)
			report.OverdueClaims = append(report.OverdueClaims, c)
		default:
			report.CommissionOutstanding = report.CommissionOutstanding.Add(c.Amount)
		}
	}

	if err := db.Scopes(reportScope(user)).Preload("Client").Preload("Venue").
		Where("status = ? AND option_expiry >= ? AND option_expiry <= ?", models.BookingStatusOption, now, now.Add(optionWarningWindow)).
		Order("option_expiry ASC").
		Find(&report.ExpiringOptions).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return report, nil
}

func (s *ReportService) Pipeline(ctx context.Context, user *models.User) (*PipelineReport, error) {
	var bookings []models.Booking
	if err := s.db.DB(ctx).Scopes(reportScope(user)).
		Select("id", "status", "total_value", "commission_amount").Find(&bookings).Error; err != nil {
		return nil, database.TranslateError(err)
	}

	statuses := models.BookingStatuses()
	index := make(map[models.BookingStatus]int, len(statuses))
	report := &PipelineReport{Stages: make([]PipelineStage, len(statuses))}
	for i, st := range statuses {
		index[st] = i
		report.Stages[i] = PipelineStage{Status: st, TotalValue: decimal.Zero, Commission: decimal.Zero}
	}
	for _, b := range bookings {
		i, ok := index[b.Status]
		if !ok {
			continue
		}
		stage := &report.Stages[i]
		stage.Count++
		stage.TotalValue = stage.TotalValue.Add(b.TotalValue)
		stage.Commission = stage.Commission.Add(b.CommissionAmount)
		report.TotalValue = report.TotalValue.Add(b.TotalValue)
		report.Commission = report.Commission.Add(b.CommissionAmount)
	}
	return report, nil
}

// Commission builds the commission report. Either bound may be nil.
func (s *ReportService) Commission(ctx context.Context, user *models.User, from, to *time.Time) (*CommissionReport, error) {
	db := s.db.DB(ctx)
	now := s.now()
	window := func(q *gorm.DB) *gorm.DB {
		if from != nil {
			q = q.Where("created_at >= ?", *from)
		}
		if to != nil {
			q = q.Where("created_at < ?", *to)
		}
		return q
	}

	var bookings []models.Booking
	if err := db.Scopes(reportScope(user), window).Preload("Venue").
		Where("status <> ?", models.BookingStatusDraft).Find(&bookings).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	var claims []models.CommissionClaim
	if err := db.Scopes(reportScope(user), window).Preload("Booking").Preload("Booking.Venue").
		Find(&claims).Error; err != nil {
		return nil, database.TranslateError(err)
	}

	report := &CommissionReport{From: from, To: to}
	venues := make(map[string]*VenueCommission)
	venueRow := func(id string, venue *models.Venue) *VenueCommission {
		row, ok := venues[id]
		if !ok {
			row = &VenueCommission{VenueID: id}
			venues[id] = row
		}
		if row.VenueName == "" && venue != nil {
			row.VenueName = venue.Name
		}
		return row
	}

	for _, b := range bookings {
		row := venueRow(b.VenueID, b.Venue)
		row.Bookings++
		row.BookedValue = row.BookedValue.Add(b.TotalValue)
		row.ExpectedCommission = row.ExpectedCommission.Add(b.CommissionAmount)
		report.Totals.BookedValue = report.Totals.BookedValue.Add(b.TotalValue)
		report.Totals.ExpectedCommission = report.Totals.ExpectedCommission.Add(b.CommissionAmount)
	}

	byStatus := make(map[models.ClaimStatus]*ClaimStatusTotal)
	for _, st := range models.ClaimStatuses() {
		byStatus[st] = &ClaimStatusTotal{Status: st, Amount: decimal.Zero}
	}
	for _, c := range claims {
		status := c.EffectiveStatusAt(now)
		bucket := byStatus[status]
		bucket.Count++
		bucket.Amount = bucket.Amount.Add(c.Amount)

		report.Totals.Claimed = report.Totals.Claimed.Add(c.Amount)
		if status == models.ClaimStatusPaid {
			report.Totals.Paid = report.Totals.Paid.Add(c.Amount)
		} else {
			report.Totals.Outstanding = report.Totals.Outstanding.Add(c.Amount)
		}
		if c.Booking != nil {
			row := venueRow(c.Booking.VenueID, c.Booking.Venue)
			row.ClaimedCommission = row.ClaimedCommission.Add(c.Amount)
		}
	}

	for _, st := range models.ClaimStatuses() {
		report.ByStatus = append(report.ByStatus, *byStatus[st])
	}
	report.ByVenue = make([]VenueCommission, 0, len(venues))
	for _, row := range venues {
		report.ByVenue = append(report.ByVenue, *row)
	}
	sort.Slice(report.ByVenue, func(i, j int) bool {
		if !report.ByVenue[i].BookedValue.Equal(report.ByVenue[j].BookedValue) {
			return report.ByVenue[i].BookedValue.GreaterThan(report.ByVenue[j].BookedValue)
		}
		return report.ByVenue[i].VenueName < report.ByVenue[j].VenueName
	})
	return report, nil
}
