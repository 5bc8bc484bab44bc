package main

import (
	"context"
	"flag"
	"net/url"

	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// setup_db migrates the configured database, reports row counts per table and
// optionally seeds an admin plus a small demo data set.
//
//	go run ./scripts/setup_db.go -admin ops@agency.example -sample
func main() {
	dsn := flag.String("dsn", "", "database URL, overrides DATABASE_URL")
	admin := flag.String("admin", "", "email of an admin user to create or promote")
	sample := flag.Bool("sample", false, "seed demo clients, venues and a proposal")
	flag.Parse()

	cfg := config.LoadConfig()
	config.ConfigureLogger(cfg)
	logger := config.GetLogger()
	if *dsn != "" {
		cfg.DatabaseURL = *dsn
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	logger.WithFields(logrus.Fields{
		"driver": cfg.DBDriver,
		"dsn":    maskPassword(cfg.DatabaseURL),
	}).Info("connecting to database")

	db, err := database.NewDatabase(database.ConfigFromApp(cfg))
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.HealthCheck(ctx); err != nil {
		logger.WithError(err).Fatal("failed to ping database")
	}
	if err := database.AutoMigrate(db.DB(ctx)); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}
	logger.Info("migration completed")

	var seededBy *models.User
	if *admin != "" {
		user, err := services.NewUserService(db, cfg.IsAdminEmail).SeedAdmin(ctx, *admin)
		if err != nil {
			logger.WithError(err).Fatal("failed to seed admin")
		}
		seededBy = user
		logger.WithField("email", user.Email).Info("admin ready")
	}

	if *sample {
		if seededBy == nil {
			logger.Fatal("-sample needs -admin to own the demo records")
		}
		if err := seedSample(ctx, db, seededBy); err != nil {
			logger.WithError(err).Fatal("failed to seed sample data")
		}
	}

	tables := []interface{}{
		&models.User{}, &models.Client{}, &models.Venue{}, &models.Proposal{},
		&models.ProposalVenue{}, &models.Booking{}, &models.CommissionClaim{},
	}
	for _, table := range tables {
		var count int64
		if err := db.DB(ctx).Model(table).Count(&count).Error; err != nil {
			logger.WithError(err).Warnf("failed to count %T", table)
			continue
		}
		logger.WithField("rows", count).Infof("table %T", table)
	}

	logger.Info("database setup completed")
}

func seedSample(ctx context.Context, db database.DatabaseInterface, owner *models.User) error {
	company := "Northwind Events"
	client, err := services.NewClientService(db).Create(ctx, owner, services.CreateClientInput{
		Name:    "Annual Sales Conference",
		Company: &company,
	})
	if err != nil {
		return err
	}

	venueService := services.NewVenueService(db)
	rate := decimal.NewFromInt(10)
	location := "London"
	options := make([]services.ProposalVenueInput, 0, 2)
	for _, name := range []string{"The Riverside Hotel", "Canal Street Loft"} {
		venue, err := venueService.Create(ctx, owner, services.CreateVenueInput{
			Name:               name,
			Location:           &location,
			StandardCommission: &rate,
		})
		if err != nil {
			return err
		}
		options = append(options, services.ProposalVenueInput{
			VenueID: venue.ID,
			ChargeLines: []services.ChargeLineInput{
				{Description: "Day delegate rate", Quantity: decimal.NewFromInt(100), UnitPrice: decimal.NewFromInt(45), Category: models.ChargeFoodBeverage},
				{Description: "Main room hire", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(2500), Category: models.ChargeRoomHire},
			},
		})
	}

	proposal, err := services.NewProposalService(db).Create(ctx, owner, services.CreateProposalInput{
		ClientID: client.ID,
		Title:    "Spring conference shortlist",
		Venues:   options,
	})
	if err != nil {
		return err
	}
	config.GetLogger().WithFields(logrus.Fields{
		"proposal_id": proposal.ID,
		"total":       proposal.TotalValue.StringFixed(2),
	}).Info("sample data seeded")
	return nil
}

// maskPassword hides the password of a URL-style DSN.
func maskPassword(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
