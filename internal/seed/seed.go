package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"roommatch/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "password123"

// Options configures a seed run.
type Options struct {
	Users                 int
	ConnectionsPerUser    int
	MessagesPerConnection int
	IncludePersonas       bool
	Clean                 bool
	DryRun                bool
	Password              string
	BcryptCost            int
	// Seed makes generated data reproducible. Zero means random.
	Seed int64
}

// Summary counts the rows a run created.
type Summary struct {
	Users         int `json:"users"`
	Profiles      int `json:"profiles"`
	Connections   int `json:"connections"`
	Accepted      int `json:"accepted"`
	Messages      int `json:"messages"`
	SavedProfiles int `json:"savedProfiles"`
	Feedback      int `json:"feedback"`
}

// Seeder writes demo data into a database.
type Seeder struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSeeder returns a Seeder. db may be nil for dry runs.
func NewSeeder(db *gorm.DB, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{db: db, logger: logger}
}

func (o *Options) withDefaults() {
	if o.Users < 0 {
		o.Users = 0
	}
	if o.ConnectionsPerUser <= 0 {
		o.ConnectionsPerUser = 3
	}
	if o.MessagesPerConnection < 0 {
		o.MessagesPerConnection = 0
	}
	if o.Password == "" {
		o.Password = DefaultPassword
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
}

// Run seeds the database according to opts. Writes happen in one transaction.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	opts.withDefaults()
	if !opts.DryRun && s.db == nil {
		return nil, errors.New("seed: database is required unless running dry")
	}

	s.logger.InfoContext(ctx, "seeding started",
		slog.Int("users", opts.Users),
		slog.Bool("personas", opts.IncludePersonas),
		slog.Bool("dry_run", opts.DryRun),
	)

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	if opts.DryRun {
		summary, err := s.populate(ctx, NewFactory(nil, opts.Seed, true), opts, string(hash))
		if err == nil {
			s.logger.InfoContext(ctx, "[dry-run] seeding finished", slog.Any("summary", summary))
		}
		return summary, err
	}

	var summary *Summary
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clean {
			if err := ClearAll(ctx, tx); err != nil {
				return err
			}
		}
		var runErr error
		summary, runErr = s.populate(ctx, NewFactory(tx, opts.Seed, false), opts, string(hash))
		return runErr
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "seeding finished", slog.Any("summary", summary))
	return summary, nil
}

func (s *Seeder) populate(ctx context.Context, f *Factory, opts Options, hash string) (*Summary, error) {
	summary := &Summary{}

	var personas []Persona
	if opts.IncludePersonas {
		var err error
		if personas, err = DefaultPersonas(); err != nil {
			return nil, err
		}
	}

	users := make([]*models.User, 0, len(personas)+opts.Users)
	for _, p := range personas {
		users = append(users, &models.User{Email: p.Email, Password: hash})
	}
	for i := 0; i < opts.Users; i++ {
		users = append(users, f.BuildUser(i, hash))
	}
	if err := Persist(ctx, f, users, func(u *models.User, id uint) { u.ID = id }); err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	summary.Users = len(users)

	profiles := make([]*models.Profile, 0, len(users))
	for i, u := range users {
		if i < len(personas) {
			profiles = append(profiles, personas[i].Profile(u.ID))
			continue
		}
		profiles = append(profiles, f.BuildProfile(u.ID))
	}
	if err := Persist(ctx, f, profiles, func(p *models.Profile, id uint) { p.ID = id }); err != nil {
		return nil, fmt.Errorf("create profiles: %w", err)
	}
	summary.Profiles = len(profiles)

	conns := buildConnections(users, opts.ConnectionsPerUser)
	if err := Persist(ctx, f, conns, func(c *models.Connection, id uint) { c.ID = id }); err != nil {
		return nil, fmt.Errorf("create connections: %w", err)
	}
	summary.Connections = len(conns)

	profileByUser := make(map[uint]*models.Profile, len(profiles))
	for _, p := range profiles {
		profileByUser[p.UserID] = p
	}

	var (
		messages []*models.Message
		saved    []*models.SavedProfile
		feedback []*models.Feedback
	)
	start := time.Now().Add(-72 * time.Hour)
	for i, c := range conns {
		// A requester bookmarks the profile it reached out to.
		if p := profileByUser[c.ReceiverID]; p != nil {
			saved = append(saved, &models.SavedProfile{UserID: c.RequesterID, ProfileID: p.ID})
		}
		if c.Status != models.ConnectionStatusAccepted {
			continue
		}
		summary.Accepted++

		at := start.Add(time.Duration(i) * time.Minute)
		for m := 0; m < opts.MessagesPerConnection; m++ {
			sender, receiver := c.RequesterID, c.ReceiverID
			if m%2 == 1 {
				sender, receiver = receiver, sender
			}
			at = at.Add(time.Duration(1+f.Intn(30)) * time.Minute)
			messages = append(messages, f.BuildMessage(sender, receiver, at))
		}
		if i%2 == 0 {
			feedback = append(feedback, f.BuildFeedback(c.RequesterID, c.ReceiverID))
		}
	}

	if err := Persist(ctx, f, messages, func(m *models.Message, id uint) { m.ID = id }); err != nil {
		return nil, fmt.Errorf("create messages: %w", err)
	}
	summary.Messages = len(messages)

	if err := Persist(ctx, f, saved, func(sp *models.SavedProfile, id uint) { sp.ID = id }); err != nil {
		return nil, fmt.Errorf("create saved profiles: %w", err)
	}
	summary.SavedProfiles = len(saved)

	if err := Persist(ctx, f, feedback, func(fb *models.Feedback, id uint) { fb.ID = id }); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	summary.Feedback = len(feedback)

	return summary, nil
}

// buildConnections pairs each user with its next few neighbours on a ring.
// Every unordered pair appears at most once. Most pairs end up accepted.
func buildConnections(users []*models.User, perUser int) []*models.Connection {
	n := len(users)
	if n < 2 {
		return nil
	}
	if perUser > n-1 {
		perUser = n - 1
	}

	type pair struct{ a, b uint }
	seen := make(map[pair]bool)
	var conns []*models.Connection
	for i := range users {
		for k := 1; k <= perUser; k++ {
			requester, receiver := users[i], users[(i+k)%n]
			key := pair{requester.ID, receiver.ID}
			if key.a > key.b {
				key.a, key.b = key.b, key.a
			}
			if seen[key] {
				continue
			}
			seen[key] = true

			status := models.ConnectionStatusAccepted
			switch idx := len(conns); {
			case idx%5 == 3:
				status = models.ConnectionStatusPending
			case idx%7 == 6:
				status = models.ConnectionStatusRejected
			}
			conns = append(conns, &models.Connection{
				RequesterID: requester.ID,
				ReceiverID:  receiver.ID,
				Status:      status,
			})
		}
	}
	return conns
}

// ClearAll removes every application row, children before parents.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	tables := []interface{}{
		&models.Message{},
		&models.Feedback{},
		&models.SavedProfile{},
		&models.Connection{},
		&models.Profile{},
		&models.PasswordReset{},
		&models.User{},
	}
	for _, t := range tables {
		if err := db.WithContext(ctx).Where("1 = 1").Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	return nil
}
