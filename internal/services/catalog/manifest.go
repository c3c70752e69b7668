package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
)

//go:embed course_manifest.schema.json
var manifestSchemaJSON []byte

// Manifest is the import format for a whole course: metadata plus ordered
// modules and lessons. Order in the file is the order in the catalog.
type Manifest struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	Published    bool   `json:"published"`
	Modules      []struct {
		Title   string `json:"title"`
		Lessons []struct {
			Title           string `json:"title"`
			Description     string `json:"description"`
			VideoURLHLS     string `json:"video_url_hls"`
			ResourcesURL    string `json:"resources_url"`
			DurationSeconds int    `json:"duration_seconds"`
		} `json:"lessons"`
	} `json:"modules"`
}

func compileManifestSchema() (*jsonschema.Schema, error) {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(manifestSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse manifest schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	schemaURL := "course_manifest.schema.json"
	if err := compiler.AddResource(schemaURL, parsed); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	return schema, nil
}

// ValidateManifest checks raw manifest JSON against the embedded schema
// and decodes it.
func ValidateManifest(data []byte) (*Manifest, error) {
	schema, err := compileManifestSchema()
	if err != nil {
		return nil, err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &manifest, nil
}

// ImportManifest creates or replaces a course from a validated manifest.
// An existing course (matched by slug) keeps its id, so enrollments and
// access requests survive re-imports; its content is rebuilt from the
// manifest. Lesson progress keyed by old lesson ids is dropped with them.
func (s *Service) ImportManifest(ctx context.Context, data []byte) (*models.Course, error) {
	manifest, err := ValidateManifest(data)
	if err != nil {
		return nil, err
	}

	course, err := s.courses.GetBySlug(ctx, manifest.Slug)
	switch {
	case err == nil:
		course.Title = manifest.Title
		course.Description = manifest.Description
		course.ThumbnailURL = manifest.ThumbnailURL
		course.IsPublished = manifest.Published
		if err := s.courses.Update(ctx, course); err != nil {
			return nil, fmt.Errorf("update course: %w", err)
		}
		existing, err := s.courses.GetContent(ctx, course.ID)
		if err != nil {
			return nil, fmt.Errorf("load existing content: %w", err)
		}
		for _, module := range existing.Modules {
			if err := s.courses.DeleteModule(ctx, module.ID); err != nil {
				return nil, fmt.Errorf("delete module %s: %w", module.ID, err)
			}
		}
	case errors.Is(err, repository.ErrNotFound):
		course = &models.Course{
			ID:           uuid.NewString(),
			Slug:         manifest.Slug,
			Title:        manifest.Title,
			Description:  manifest.Description,
			ThumbnailURL: manifest.ThumbnailURL,
			IsPublished:  manifest.Published,
		}
		if err := s.courses.Create(ctx, course); err != nil {
			return nil, fmt.Errorf("create course: %w", err)
		}
	default:
		return nil, fmt.Errorf("lookup course: %w", err)
	}

	for moduleIndex, m := range manifest.Modules {
		module := &models.CourseModule{
			ID:         uuid.NewString(),
			CourseID:   course.ID,
			Title:      m.Title,
			OrderIndex: moduleIndex,
		}
		if err := s.courses.CreateModule(ctx, module); err != nil {
			return nil, fmt.Errorf("create module %q: %w", m.Title, err)
		}
		for lessonIndex, l := range m.Lessons {
			lesson := &models.Lesson{
				ID:              uuid.NewString(),
				ModuleID:        module.ID,
				Title:           l.Title,
				Description:     l.Description,
				VideoURLHLS:     l.VideoURLHLS,
				ResourcesURL:    l.ResourcesURL,
				DurationSeconds: l.DurationSeconds,
				OrderIndex:      lessonIndex,
			}
			if err := s.courses.CreateLesson(ctx, lesson); err != nil {
				return nil, fmt.Errorf("create lesson %q: %w", l.Title, err)
			}
		}
	}

	return s.courses.GetContent(ctx, course.ID)
}
