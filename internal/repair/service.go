// Package repair turns vehicle details into step-by-step repair instructions.
package repair

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"repairguide/internal/adapter/external/gemini"
	"repairguide/internal/shared"
)

// SystemPrompt instructs the model to answer with a tools list and numbered steps only.
const SystemPrompt = "You are a professional automotive technician and clear instructional writer. " +
	"Your task is to provide concise, easy-to-follow, step-by-step instructions for performing a specific car repair. " +
	"Structure the response clearly, starting with a 'Tools Required' section (a simple list) followed by " +
	"'Step-by-Step Procedure' (a numbered list). Do not include any conversational preamble, safety warnings, " +
	"or lengthy explanations unless it is a necessary part of the first step. " +
	"Focus only on the tools required and the procedural steps."

// Generator produces grounded text for a prompt.
type Generator interface {
	Generate(ctx context.Context, p gemini.Prompt) (gemini.Result, error)
}

// Vehicle identifies the car and the part to replace.
type Vehicle struct {
	Year  string `json:"year" form:"year" validate:"required"`
	Make  string `json:"make" form:"make" validate:"required"`
	Model string `json:"model" form:"model" validate:"required"`
	Part  string `json:"part" form:"part" validate:"required"`
}

// Normalize trims surrounding whitespace from every field.
func (v Vehicle) Normalize() Vehicle {
	return Vehicle{
		Year:  strings.TrimSpace(v.Year),
		Make:  strings.TrimSpace(v.Make),
		Model: strings.TrimSpace(v.Model),
		Part:  strings.TrimSpace(v.Part),
	}
}

var validate = validator.New()

// Validate reports missing fields as a shared.KindValidation error.
// v is expected to be normalized.
func (v Vehicle) Validate() error {
	if err := validate.Struct(v); err != nil {
		return shared.MarkKind(err, shared.KindValidation)
	}
	return nil
}

// Query is the user prompt sent for v.
func (v Vehicle) Query() string {
	return fmt.Sprintf("Provide the tool list and detailed, numbered steps for replacing the %s on a %s %s %s. "+
		"Focus on clarity, safety, and conciseness.", v.Part, v.Year, v.Make, v.Model)
}

// Source is a citation shown under the instructions.
type Source = gemini.Source

// Guide is the answer for one vehicle.
type Guide struct {
	Text    string   `json:"instructions"`
	Sources []Source `json:"sources"`
}

// Service answers repair questions.
type Service struct {
	gen Generator
	log *slog.Logger
}

// NewService creates a Service.
func NewService(gen Generator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{gen: gen, log: log}
}

// Instructions validates v and asks the generator for a grounded guide.
// Validation failures carry shared.KindValidation and never reach the network.
func (s *Service) Instructions(ctx context.Context, v Vehicle) (Guide, error) {
	v = v.Normalize()
	if err := v.Validate(); err != nil {
		return Guide{}, err
	}

	start := time.Now()
	res, err := s.gen.Generate(ctx, gemini.Prompt{
		Query:             v.Query(),
		SystemInstruction: SystemPrompt,
		GoogleSearch:      true,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "instructions failed",
			slog.String("part", v.Part),
			slog.String("vehicle", v.Year+" "+v.Make+" "+v.Model),
			slog.String("kind", shared.KindOf(err).String()),
			slog.Any("error", err),
		)
		return Guide{}, err
	}

	s.log.InfoContext(ctx, "instructions generated",
		slog.String("part", v.Part),
		slog.String("vehicle", v.Year+" "+v.Make+" "+v.Model),
		slog.Int("sources", len(res.Sources)),
		slog.Duration("dur", time.Since(start)),
	)
	sources := res.Sources
	if sources == nil {
		sources = []Source{}
	}
	return Guide{Text: res.Text, Sources: sources}, nil
}
