package service

import (
	"disaster-response/internal/ml"
	"disaster-response/internal/models"
	"disaster-response/internal/textproc"

	"go.uber.org/zap"
)

// Classifier serves predictions from a trained model file.
type Classifier struct {
	pipeline *ml.Pipeline
	logger   *zap.Logger
}

// NewClassifier loads the model at modelPath and builds a tokenizer in the
// mode the model was trained with. opts may supply other tokenizer settings;
// the mode itself always comes from the model.
func NewClassifier(modelPath string, logger *zap.Logger, opts ...textproc.Option) (*Classifier, error) {
	p, err := ml.LoadModel(modelPath)
	if err != nil {
		return nil, err
	}

	opts = append(opts, textproc.WithFaithful(p.Faithful))
	tokenizer, err := textproc.NewTokenizer(opts...)
	if err != nil {
		return nil, err
	}
	p.SetTokenizer(tokenizer.Tokenize)

	logger.Info("Model loaded",
		zap.String("path", modelPath),
		zap.String("run_id", p.RunID),
		zap.Bool("faithful_tokenizer", p.Faithful),
		zap.Int("labels", len(p.Labels)),
		zap.String("params", p.Params.String()))

	return NewClassifierFromPipeline(p, logger), nil
}

// NewClassifierFromPipeline wraps an already fitted pipeline.
func NewClassifierFromPipeline(p *ml.Pipeline, logger *zap.Logger) *Classifier {
	return &Classifier{
		pipeline: p,
		logger:   logger,
	}
}

// Classify predicts every label of one message.
func (c *Classifier) Classify(text string) *models.Classification {
	return c.ClassifyBatch([]string{text})[0]
}

// ClassifyBatch predicts every label of each message.
func (c *Classifier) ClassifyBatch(texts []string) []*models.Classification {
	pred := c.pipeline.Predict(texts)

	out := make([]*models.Classification, len(texts))
	for i, text := range texts {
		cl := &models.Classification{
			Text:   text,
			Labels: make(map[string]int, len(c.pipeline.Labels)),
			Active: []string{},
		}
		for j, label := range c.pipeline.Labels {
			cl.Labels[label] = pred[i][j]
			if pred[i][j] != 0 {
				cl.Active = append(cl.Active, label)
			}
		}
		out[i] = cl
	}

	c.logger.Debug("Messages classified", zap.Int("count", len(texts)))
	return out
}

// ModelInfo describes the loaded model.
func (c *Classifier) ModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"run_id":             c.pipeline.RunID,
		"params":             c.pipeline.Params.String(),
		"labels":             c.pipeline.Labels,
		"faithful_tokenizer": c.pipeline.Faithful,
	}
}
