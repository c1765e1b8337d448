// Package seed creates demo data for development databases: users with
// profiles, a mesh of connections, conversations, bookmarks and ratings.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roommatch/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var (
	genders      = []string{"female", "male", "non-binary"}
	drinking     = []string{"never", "socially", "often"}
	cleanliness  = []string{"very clean", "clean", "tidy", "relaxed"}
	socialLevels = []string{"introvert", "balanced", "extrovert"}
	guests       = []string{"rarely", "occasionally", "often"}
	musicTastes  = []string{"jazz", "indie", "pop", "hip hop", "classical", "electronic", "rock"}
	cooking      = []string{"rarely", "weekends", "often", "every day"}
)

// Factory builds domain rows and persists them unless running dry.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	dry   bool
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory. A zero seed picks one from the clock.
func NewFactory(db *gorm.DB, seed int64, dryRun bool) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, faker: gofakeit.New(seed), dry: dryRun, nextID: 1000}
}

// BuildUser returns an unsaved user. The index keeps emails unique within a run.
func (f *Factory) BuildUser(index int, passwordHash string) *models.User {
	local := strings.ToLower(f.faker.FirstName() + "." + f.faker.LastName())
	local = strings.ReplaceAll(local, " ", "")
	return &models.User{
		Email:    fmt.Sprintf("%s.%d@roommatch.dev", local, index),
		Password: passwordHash,
	}
}

// BuildProfile returns an unsaved profile with randomized preferences.
func (f *Factory) BuildProfile(userID uint) *models.Profile {
	budget := f.faker.Number(10, 40) * 50
	smoking := f.faker.Number(1, 10) == 1
	pets := f.faker.Bool()
	wfh := f.faker.Bool()

	return &models.Profile{
		UserID:       userID,
		Name:         f.faker.FirstName(),
		Age:          f.faker.Number(19, 45),
		Bio:          f.faker.Sentence(12),
		Location:     fmt.Sprintf("%s, %s", f.faker.City(), f.faker.StateAbr()),
		Gender:       f.faker.RandomString(genders),
		Profession:   truncate(f.faker.JobTitle(), 100),
		Budget:       &budget,
		MoveInDate:   time.Now().AddDate(0, 0, f.faker.Number(7, 120)).Format("2006-01-02"),
		Smoking:      &smoking,
		Drinking:     f.faker.RandomString(drinking),
		Pets:         &pets,
		Cleanliness:  f.faker.RandomString(cleanliness),
		SocialLevel:  f.faker.RandomString(socialLevels),
		WorkFromHome: &wfh,
		Guests:       f.faker.RandomString(guests),
		Music:        f.faker.RandomString(musicTastes),
		Cooking:      f.faker.RandomString(cooking),
	}
}

// BuildMessage returns an unsaved message sent at the given time.
func (f *Factory) BuildMessage(senderID, receiverID uint, at time.Time) *models.Message {
	return &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    truncate(f.faker.Sentence(f.faker.Number(3, 14)), models.MaxMessageLength),
		CreatedAt:  at,
	}
}

// BuildFeedback returns an unsaved rating from one user about another.
func (f *Factory) BuildFeedback(fromUserID, toUserID uint) *models.Feedback {
	clean := f.faker.Number(1, 5)
	comm := f.faker.Number(1, 5)
	reliable := f.faker.Number(1, 5)
	return &models.Feedback{
		FromUserID:    fromUserID,
		ToUserID:      toUserID,
		Rating:        f.faker.Number(1, 5),
		Cleanliness:   &clean,
		Communication: &comm,
		Reliability:   &reliable,
		Comment:       truncate(f.faker.Sentence(10), 500),
	}
}

// Intn returns a number in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// Persist inserts rows in one batch. In dry-run mode rows get synthetic IDs.
func Persist[T any](ctx context.Context, f *Factory, rows []*T, setID func(*T, uint)) error {
	if len(rows) == 0 {
		return nil
	}
	if f.dry {
		for _, row := range rows {
			f.nextID++
			setID(row, f.nextID)
		}
		return nil
	}
	return f.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
