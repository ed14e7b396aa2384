// Package mock provides a deterministic ai.Embedder test double.
//
// The mock runs without network access and produces the same vector for
// the same text every time, so index build and search tests are fully
// reproducible. Behavior can be overridden per-test via function fields:
//
//	embedder := mock.NewEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("provider down")
//	}
package mock
