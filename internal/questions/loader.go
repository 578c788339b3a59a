package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/p-blackswan/kanban-board/internal/lru"
	"github.com/p-blackswan/kanban-board/internal/models"
)

// DefaultCacheSize covers every category with room to spare.
const DefaultCacheSize = 8

// rawTemplate is the on-disk layout of a template file.
type rawTemplate struct {
	CategoryID          string        `json:"categoryId" yaml:"categoryId"`
	CategoryName        string        `json:"categoryName" yaml:"categoryName"`
	CategoryDescription string        `json:"categoryDescription" yaml:"categoryDescription"`
	Questions           []rawQuestion `json:"questions" yaml:"questions"`
}

type rawQuestion struct {
	ID         string   `json:"id" yaml:"id"`
	Order      int      `json:"order" yaml:"order"`
	Text       string   `json:"text" yaml:"text"`
	HelpText   *string  `json:"helpText" yaml:"helpText"`
	IsRequired bool     `json:"isRequired" yaml:"isRequired"`
	InputType  string   `json:"inputType" yaml:"inputType"`
	Options    []string `json:"options" yaml:"options"`
}

// cachedTemplate is a parsed template with the stamp of the file it came from.
type cachedTemplate struct {
	tmpl    *models.QuestionTemplate
	path    string
	modTime time.Time
	size    int64
}

// fresh reports whether the source file is still the one that was parsed.
func (c cachedTemplate) fresh() bool {
	fi, err := os.Stat(c.path)
	if err != nil {
		return false
	}
	return fi.ModTime().Equal(c.modTime) && fi.Size() == c.size
}

// Loader reads question templates from a directory and caches parsed results.
// A cache hit is only served while the source file is unchanged on disk.
type Loader struct {
	dir    string
	cache  *lru.Cache[models.Category, cachedTemplate]
	logger zerolog.Logger
}

// NewLoader creates a loader over dir holding <category>.json or <category>.yaml files.
func NewLoader(dir string, cacheSize int, logger zerolog.Logger) *Loader {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Loader{
		dir:    dir,
		cache:  lru.New[models.Category, cachedTemplate](cacheSize),
		logger: logger.With().Str("component", "questions").Logger(),
	}
}

// Dir returns the templates directory.
func (l *Loader) Dir() string {
	return l.dir
}

// LoadTemplate returns the template for category. It never fails: unknown
// categories and unreadable or malformed files yield the fallback template.
func (l *Loader) LoadTemplate(ctx context.Context, category models.Category) *models.QuestionTemplate {
	if !models.IsValidCategory(string(category)) {
		l.logger.Warn().Str("category", string(category)).Msg("Unknown category, using fallback questions")
		return Fallback(category)
	}

	if c, ok := l.cache.Get(category); ok {
		if c.fresh() {
			return cloneTemplate(c.tmpl)
		}
		l.Invalidate(category)
	}

	if err := ctx.Err(); err != nil {
		return Fallback(category)
	}

	c, err := l.readTemplate(category)
	if err != nil {
		l.logger.Warn().Err(err).Str("category", string(category)).Msg("Failed to load template, using fallback")
		return Fallback(category)
	}

	l.cache.Add(category, c)
	return cloneTemplate(c.tmpl)
}

// LoadAll loads every category concurrently and returns them sorted by category.
func (l *Loader) LoadAll(ctx context.Context) ([]*models.QuestionTemplate, error) {
	templates := make([]*models.QuestionTemplate, len(models.Categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range models.Categories {
		i, c := i, c
		g.Go(func() error {
			templates[i] = l.LoadTemplate(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Category < templates[j].Category
	})
	return templates, nil
}

// Invalidate drops a cached template so the next load rereads the file.
func (l *Loader) Invalidate(category models.Category) {
	if l.cache.Remove(category) {
		l.logger.Debug().Str("category", string(category)).Msg("Template cache entry evicted")
	}
}

// Cached reports whether category is currently cached.
func (l *Loader) Cached(category models.Category) bool {
	for _, k := range l.cache.Keys() {
		if k == category {
			return true
		}
	}
	return false
}

func (l *Loader) readTemplate(category models.Category) (cachedTemplate, error) {
	var raw rawTemplate

	path := filepath.Join(l.dir, string(category)+".json")
	unmarshal := json.Unmarshal
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		path = filepath.Join(l.dir, string(category)+".yaml")
		unmarshal = yaml.Unmarshal
		fi, err = os.Stat(path)
	}
	if err != nil {
		return cachedTemplate{}, fmt.Errorf("read template: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cachedTemplate{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := unmarshal(data, &raw); err != nil {
		return cachedTemplate{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return cachedTemplate{
		tmpl:    transform(raw, category),
		path:    path,
		modTime: fi.ModTime(),
		size:    fi.Size(),
	}, nil
}

func transform(raw rawTemplate, category models.Category) *models.QuestionTemplate {
	questions := make([]models.Question, 0, len(raw.Questions))
	for _, q := range raw.Questions {
		out := models.Question{
			ID:          q.ID,
			Order:       q.Order,
			Text:        q.Text,
			Description: q.HelpText,
			InputType:   models.InputType(q.InputType),
			Required:    q.IsRequired,
			Options:     q.Options,
		}
		if out.InputType == models.InputTextarea {
			maxLen := textareaMax
			out.MaxLength = &maxLen
		}
		questions = append(questions, out)
	}

	return &models.QuestionTemplate{
		ID:                  string(category),
		Category:            category,
		CategoryName:        raw.CategoryName,
		CategoryDescription: raw.CategoryDescription,
		Version:             templateVersion,
		Questions:           questions,
	}
}

func cloneTemplate(t *models.QuestionTemplate) *models.QuestionTemplate {
	c := *t
	c.Questions = make([]models.Question, len(t.Questions))
	for i, q := range t.Questions {
		q.Options = append([]string(nil), q.Options...)
		c.Questions[i] = q
	}
	return &c
}
