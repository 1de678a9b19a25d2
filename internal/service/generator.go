package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/FOX2920/sf-api/internal/localstore"
	"github.com/FOX2920/sf-api/internal/model"
	"github.com/FOX2920/sf-api/internal/render"
	"github.com/FOX2920/sf-api/internal/repository"
	"github.com/FOX2920/sf-api/internal/storage"
)

var ErrShipmentNotFound = errors.New("shipment not found")

var documentsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "documents_generated_total",
	Help: "Generated shipment documents by kind and outcome.",
}, []string{"kind", "outcome"})

// GenerateResult reports one completed generation: where the document ended
// up locally (nil when no local copy was written) and remotely, plus any
// non-fatal warnings accumulated along the way.
type GenerateResult struct {
	FileName        string             `json:"file_name"`
	FilePath        *string            `json:"file_path"`
	RemoteContentID string             `json:"remote_content_id"`
	DocumentKind    model.DocumentKind `json:"document_kind"`
	ShipmentID      string             `json:"shipment_id"`
	ItemCount       int                `json:"item_count"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// GeneratorService defines the document generation use cases.
type GeneratorService interface {
	// GeneratePackingList renders and persists the packing list.
	GeneratePackingList(ctx context.Context, shipmentID string) (*GenerateResult, error)

	// GenerateInvoice renders and persists the invoice, using the discount
	// template variant when the shipment carries a discount.
	GenerateInvoice(ctx context.Context, shipmentID string) (*GenerateResult, error)

	// GenerateCombinedExport renders the packing list and invoice into one
	// two-sheet workbook and persists it.
	GenerateCombinedExport(ctx context.Context, shipmentID string) (*GenerateResult, error)
}

type generatorService struct {
	repo      repository.ShipmentRepository
	picklists repository.PicklistSource
	renderer  *render.Renderer
	local     *localstore.Store
	remote    storage.ContentStore
}

// NewGeneratorService constructs a GeneratorService.
func NewGeneratorService(
	repo repository.ShipmentRepository,
	picklists repository.PicklistSource,
	renderer *render.Renderer,
	local *localstore.Store,
	remote storage.ContentStore,
) GeneratorService {
	return &generatorService{repo: repo, picklists: picklists, renderer: renderer, local: local, remote: remote}
}

func (s *generatorService) GeneratePackingList(ctx context.Context, shipmentID string) (*GenerateResult, error) {
	return s.generate(ctx, shipmentID, func(sh *model.Shipment) (*render.Result, error) {
		return s.renderer.Render(model.KindPackingList, sh)
	})
}

func (s *generatorService) GenerateInvoice(ctx context.Context, shipmentID string) (*GenerateResult, error) {
	return s.generate(ctx, shipmentID, func(sh *model.Shipment) (*render.Result, error) {
		kind := model.KindInvoice
		if sh.HasDiscount() {
			kind = model.KindInvoiceWithDiscount
		}
		return s.renderer.Render(kind, sh)
	})
}

func (s *generatorService) GenerateCombinedExport(ctx context.Context, shipmentID string) (*GenerateResult, error) {
	return s.generate(ctx, shipmentID, s.renderer.RenderCombined)
}

// generate runs the shared pipeline: fetch the aggregate, resolve picklists,
// render, write the best-effort local copy, then sync to the CRM. The remote
// copy is authoritative, so its failure fails the request even when the local
// write succeeded.
func (s *generatorService) generate(ctx context.Context, shipmentID string, renderFn func(*model.Shipment) (*render.Result, error)) (*GenerateResult, error) {
	sh, err := s.repo.GetShipment(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrShipmentNotFound, shipmentID)
		}
		return nil, fmt.Errorf("fetch shipment: %w", err)
	}

	warnings := s.attachPicklists(ctx, sh)

	rendered, err := renderFn(sh)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, rendered.Warnings...)

	artifact := rendered.Artifact
	path, saveWarnings := s.local.Save(artifact.FileName, artifact.Bytes)
	warnings = append(warnings, saveWarnings...)

	contentID, err := s.syncRemote(ctx, &artifact, sh.ID)
	if err != nil {
		documentsGenerated.WithLabelValues(string(artifact.Kind), "error").Inc()
		return nil, err
	}

	documentsGenerated.WithLabelValues(string(artifact.Kind), "success").Inc()
	return &GenerateResult{
		FileName:        artifact.FileName,
		FilePath:        path,
		RemoteContentID: contentID,
		DocumentKind:    artifact.Kind,
		ShipmentID:      sh.ID,
		ItemCount:       len(sh.Items),
		Warnings:        warnings,
	}, nil
}

// attachPicklists loads the option sets rendered as checkbox blocks. A failed
// lookup degrades that block to unchecked-nothing rather than failing the
// document.
func (s *generatorService) attachPicklists(ctx context.Context, sh *model.Shipment) []string {
	var warnings []string
	fields := []struct {
		name string
		dest *[]string
	}{
		{"Freight__c", &sh.Picklists.Freight},
		{"Terms_of_Sales__c", &sh.Picklists.TermsOfSales},
		{"Terms_of_Payment__c", &sh.Picklists.TermsOfPayment},
	}
	for _, f := range fields {
		values, err := s.picklists.PicklistValues(ctx, "Shipment__c", f.name)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("picklist %s unavailable: %v", f.name, err))
			continue
		}
		*f.dest = values
	}
	return warnings
}

// syncRemote uploads the document and links it to the shipment. A failed link
// after a successful upload is reported as an orphaned upload so the content
// id is not lost.
func (s *generatorService) syncRemote(ctx context.Context, artifact *model.GeneratedArtifact, recordID string) (string, error) {
	contentID, err := s.remote.Upload(ctx, artifact.FileName, artifact.Bytes)
	if err != nil {
		return "", &storage.UploadError{Err: err}
	}
	if err := s.remote.Link(ctx, contentID, recordID); err != nil {
		return "", &storage.UploadError{ContentID: contentID, Err: err}
	}
	return contentID, nil
}
