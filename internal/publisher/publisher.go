package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"rental-booking/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNoEquipment  = errors.New("no equipment to publish")
	ErrMissingImage = errors.New("selected equipment has no image url")
)

type Catalog interface {
	ListEquipment(ctx context.Context) ([]models.Equipment, error)
}

type Poster interface {
	Configured() bool
	CreateContainer(ctx context.Context, imageURL, caption string) (string, error)
	PublishContainer(ctx context.Context, creationID string) (string, error)
}

// Publisher posts one catalog item per run.
type Publisher struct {
	catalog Catalog
	poster  Poster
	log     *slog.Logger

	now  func() time.Time
	intn func(n int) int
}

func New(catalog Catalog, poster Poster, log *slog.Logger) *Publisher {
	return &Publisher{
		catalog: catalog,
		poster:  poster,
		log:     log,
		now:     time.Now,
		intn:    rand.Intn,
	}
}

// Run picks today's category, selects an item and caption at random and
// publishes it. It returns the published media id. Every failure aborts the
// run; nothing is retried.
func (p *Publisher) Run(ctx context.Context) (string, error) {
	log := p.log.With("run_id", uuid.NewString())

	now := p.now()
	category := CategoryFor(now)
	log.Info("starting publish run", "weekday", now.Weekday().String(), "category", category)

	all, err := p.catalog.ListEquipment(ctx)
	if err != nil {
		log.Error("error connecting to the rental api", "error", err)
		return "", err
	}

	candidates := filterByCategory(all, category)
	if len(candidates) == 0 {
		log.Info("no equipment in today's category, using the full catalog", "category", category)
		candidates = all
	}
	if len(candidates) == 0 {
		log.Warn("no equipment found to publish")
		return "", ErrNoEquipment
	}

	selected := candidates[p.intn(len(candidates))]
	caption := Caption(selected, p.intn(len(captionTemplates)))

	if selected.ImageURL == nil || *selected.ImageURL == "" {
		log.Warn("equipment has no image url to publish", "equipment_id", selected.ID, "name", selected.Name)
		return "", ErrMissingImage
	}
	imageURL := *selected.ImageURL

	log.Info("publishing equipment", "equipment_id", selected.ID, "image_url", imageURL, "caption", caption)

	if !p.poster.Configured() {
		log.Error("INSTAGRAM_BUSINESS_ACCOUNT_ID and META_ACCESS_TOKEN must be set, skipping publication")
		return "", ErrNotConfigured
	}

	creationID, err := p.poster.CreateContainer(ctx, imageURL, caption)
	if err != nil {
		log.Error("error creating media container", "error", err)
		return "", fmt.Errorf("create media container: %w", err)
	}
	log.Info("media container created", "creation_id", creationID)

	mediaID, err := p.poster.PublishContainer(ctx, creationID)
	if err != nil {
		log.Error("error publishing media container", "creation_id", creationID, "error", err)
		return "", fmt.Errorf("publish media container: %w", err)
	}
	log.Info("published", "media_id", mediaID)
	return mediaID, nil
}
