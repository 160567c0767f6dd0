package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/soletrack/soletrack-backend/api/responses"
	"github.com/soletrack/soletrack-backend/internal/pipeline"
	pkgerrors "github.com/soletrack/soletrack-backend/pkg/errors"
	"github.com/soletrack/soletrack-backend/pkg/logger"
	"github.com/soletrack/soletrack-backend/pkg/storage/gcs"
)

// ArtifactReader serves the raw bytes of a published artifact.
type ArtifactReader interface {
	ReadObject(ctx context.Context, name string) ([]byte, error)
}

// Artifact streams a published artifact straight through; the pipeline wrote
// valid JSON, so there is nothing to re-marshal.
func Artifact(logg *logger.Logger, reader ArtifactReader, objectName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := reader.ReadObject(r.Context(), objectName)
		if err != nil {
			if errors.Is(err, gcs.ErrObjectNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "artifact not published yet"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading artifact"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

// Artifact route names map URL slugs onto published object names.
var artifactBySlug = map[string]string{
	"deals":           pipeline.ArtifactDeals,
	"unaltered-deals": pipeline.ArtifactUnaltered,
	"stats":           pipeline.ArtifactStats,
	"daily-deals":     pipeline.ArtifactDailyDeals,
	"scraper-data":    pipeline.ArtifactScraperData,
}

// ArtifactSlugs returns the routable artifact slugs with their object names.
func ArtifactSlugs() map[string]string {
	out := make(map[string]string, len(artifactBySlug))
	for slug, name := range artifactBySlug {
		out[slug] = name
	}
	return out
}
