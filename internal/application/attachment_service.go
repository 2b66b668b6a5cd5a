package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
)

// AttachReport describes the outcome of one attach command.
type AttachReport struct {
	Attached   []string
	Skipped    []domain.SkippedFile
	GroupID    string
	Truncation Truncation
}

type AttachmentService struct {
	reader    ports.SourceReader
	extractor ports.TextExtractor
	registry  *Registry
}

func NewAttachmentService(reader ports.SourceReader, extractor ports.TextExtractor, registry *Registry) *AttachmentService {
	return &AttachmentService{reader: reader, extractor: extractor, registry: registry}
}

// AttachPath attaches a file, or every eligible immediate child of a
// directory as one group. Skipped directory entries are reported, not failed.
func (s *AttachmentService) AttachPath(ctx context.Context, session *domain.Session, budget domain.ContextBudget, path string) (AttachReport, error) {
	dir, err := s.reader.IsDir(ctx, path)
	if err != nil {
		return AttachReport{}, fmt.Errorf("inspect %q: %w", path, err)
	}

	if !dir {
		file, err := s.reader.ReadFile(ctx, path)
		if err != nil {
			return AttachReport{}, fmt.Errorf("read %q: %w", path, err)
		}
		truncation, err := s.registry.Attach(session, budget, file.Path, domain.KindFile, file.Body)
		if err != nil {
			return AttachReport{}, err
		}
		return AttachReport{Attached: []string{file.Path}, Truncation: truncation}, nil
	}

	listing, err := s.reader.ReadDirectory(ctx, path)
	if err != nil {
		return AttachReport{}, fmt.Errorf("read directory %q: %w", path, err)
	}

	report := AttachReport{Skipped: listing.Skipped}
	if len(listing.Files) == 0 {
		return report, fmt.Errorf("attach directory %q: %w", listing.Path, domain.ErrNoEligibleFiles)
	}

	members := make([]AttachMember, 0, len(listing.Files))
	for _, f := range listing.Files {
		members = append(members, AttachMember{SourceID: f.Path, Body: f.Body})
		report.Attached = append(report.Attached, f.Path)
	}

	groupID, truncation, err := s.registry.AttachGroup(session, budget, members)
	if err != nil {
		report.Attached = nil
		return report, err
	}
	report.GroupID = groupID
	report.Truncation = truncation
	return report, nil
}

func (s *AttachmentService) AttachWebsite(ctx context.Context, session *domain.Session, budget domain.ContextBudget, locator string) (AttachReport, error) {
	body, err := s.extractor.Extract(ctx, locator)
	if err != nil {
		return AttachReport{}, fmt.Errorf("extract %q: %w", locator, err)
	}
	if body == "" {
		return AttachReport{}, fmt.Errorf("extract %q: %w", locator, domain.ErrEmptyExtraction)
	}

	truncation, err := s.registry.Attach(session, budget, locator, domain.KindWebsite, body)
	if err != nil {
		return AttachReport{}, err
	}
	return AttachReport{Attached: []string{locator}, Truncation: truncation}, nil
}

// IsNotice reports errors that leave the session unchanged and only deserve
// a notice to the operator.
func IsNotice(err error) bool {
	return errors.Is(err, domain.ErrNoEligibleFiles) || errors.Is(err, domain.ErrEmptyExtraction)
}
