package embedding

import (
	"errors"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/retriever/helper"
)

var errNoEmbedding = errors.New("no embedding generated")

// DefaultLoader returns a LoaderFunc backed by hugot sentence-transformer
// pipelines. The model is downloaded on first use and the pipeline stays
// alive for the process lifetime, matching the Registry's cache semantics.
func DefaultLoader() LoaderFunc {
	return func(modelID string) (EncodeBatchFunc, error) {
		// Prepare model (download if needed)
		modelPath, err := helper.PrepareModel(modelID, "onnx/model.onnx")
		if err != nil {
			return nil, err
		}

		// Initialize hugot session with Go backend
		session, err := hugot.NewGoSession()
		if err != nil {
			return nil, fmt.Errorf("failed to create hugot session: %w", err)
		}

		config := hugot.FeatureExtractionConfig{
			ModelPath: modelPath,
			Name:      "encoder-" + modelID,
		}
		sentencePipeline, err := hugot.NewPipeline(session, config)
		if err != nil {
			if destroyErr := session.Destroy(); destroyErr != nil {
				return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
			}
			return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
		}

		return func(texts []string) ([][]float32, error) {
			if len(texts) == 0 {
				return nil, nil
			}
			result, err := sentencePipeline.RunPipeline(texts)
			if err != nil {
				return nil, fmt.Errorf("failed to generate embeddings: %w", err)
			}
			if len(result.Embeddings) != len(texts) {
				return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", len(result.Embeddings), len(texts))
			}
			return result.Embeddings, nil
		}, nil
	}
}
