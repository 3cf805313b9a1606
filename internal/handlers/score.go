package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Bebenbaven/YTcommentGETer/internal/classifier"
)

// maxTexts bounds a single scoring request.
const maxTexts = 1000

type ScoreRequest struct {
	Texts []string `json:"texts"`
}

type ScoreResult struct {
	Label int      `json:"label"`
	Score *float64 `json:"score"`
}

type ScoreDiagnostics struct {
	Total               int                   `json:"total"`
	EmptyVectors        int                   `json:"empty_vectors"`
	EmptyVectorFraction float64               `json:"empty_vectors_fraction"`
	MeanFeatures        float64               `json:"mean_features"`
	Toxic               int                   `json:"toxic"`
	Regime              classifier.Capability `json:"regime"`
	Bias                float64               `json:"bias"`
}

type ScoreResponse struct {
	Code        string           `json:"code"`
	Results     []ScoreResult    `json:"results"`
	Diagnostics ScoreDiagnostics `json:"diagnostics"`
}

// Score labels the posted texts with the loaded model.
func (h *Handler) Score(c echo.Context) error {
	var req ScoreRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fail("invalid request body"))
	}
	if len(req.Texts) == 0 {
		return c.JSON(http.StatusBadRequest, fail("texts must not be empty"))
	}
	if len(req.Texts) > maxTexts {
		return c.JSON(http.StatusRequestEntityTooLarge, fail("too many texts"))
	}
	if h.scorer == nil {
		return c.JSON(http.StatusServiceUnavailable, fail("model is not loaded"))
	}

	results, diag := h.scorer.ScoreTexts(req.Texts)

	resp := ScoreResponse{
		Code:    "success",
		Results: make([]ScoreResult, len(results)),
		Diagnostics: ScoreDiagnostics{
			Total:               diag.Total,
			EmptyVectors:        diag.EmptyVectors,
			EmptyVectorFraction: diag.EmptyVectorFraction,
			MeanFeatures:        diag.MeanFeatures,
			Toxic:               diag.Toxic,
			Regime:              diag.Regime,
			Bias:                diag.Bias,
		},
	}
	for i, r := range results {
		resp.Results[i] = ScoreResult{Label: r.Label, Score: r.Score}
	}
	return c.JSON(http.StatusOK, resp)
}
