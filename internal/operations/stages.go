package operations

import (
	"context"
	"log/slog"

	"milexcli/internal/exporter"
)

// Step IDs
const (
	StepIDConvert  = "convert"
	StepIDMetadata = "metadata"
)

// ConvertStep runs the spreadsheet to JSON conversion. It fails when no
// input exists or when any file could not be converted.
type ConvertStep struct {
	BaseStage
	converter *exporter.Converter
	logger    *slog.Logger

	report *exporter.Report
}

// NewConvertStep creates the conversion step
func NewConvertStep(converter *exporter.Converter, logger *slog.Logger) *ConvertStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertStep{
		BaseStage: NewBaseStage(StepIDConvert, "Convert spreadsheets"),
		converter: converter,
		logger:    logger,
	}
}

// Execute implements Step
func (s *ConvertStep) Execute(ctx context.Context) error {
	report, err := s.converter.Run(ctx)
	s.report = report
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		return NewPartialError(s.ID(), failed)
	}
	return nil
}

// Report returns the last conversion report, nil before Execute
func (s *ConvertStep) Report() *exporter.Report {
	return s.report
}

// MetadataStep writes country_metadata.json
type MetadataStep struct {
	BaseStage
	generator *exporter.MetadataGenerator
	logger    *slog.Logger
}

// NewMetadataStep creates the metadata step
func NewMetadataStep(generator *exporter.MetadataGenerator, logger *slog.Logger) *MetadataStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataStep{
		BaseStage: NewBaseStage(StepIDMetadata, "Generate country metadata"),
		generator: generator,
		logger:    logger,
	}
}

// Execute implements Step
func (s *MetadataStep) Execute(ctx context.Context) error {
	count, err := s.generator.Generate(ctx)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "metadata step done", slog.Int("countries", count))
	return nil
}
