package models

import "time"

// TrainingRun records one train-classifier invocation.
type TrainingRun struct {
	ID         string    `json:"id" db:"id"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
	NTrain     int       `json:"n_train" db:"n_train"`
	NTest      int       `json:"n_test" db:"n_test"`
	BestParams string    `json:"best_params" db:"best_params"`
	CVScore    float64   `json:"cv_score" db:"cv_score"`
	ModelPath  string    `json:"model_path" db:"model_path"`
}

// LabelMetric is one row of a per-label classification report. Class is
// the label value, or -1 for the macro average and -2 for the weighted average.
type LabelMetric struct {
	RunID     string  `json:"run_id" db:"run_id"`
	Label     string  `json:"label" db:"label"`
	Class     int     `json:"class" db:"class_value"`
	Precision float64 `json:"precision" db:"precision_score"`
	Recall    float64 `json:"recall" db:"recall_score"`
	F1        float64 `json:"f1" db:"f1_score"`
	Support   int     `json:"support" db:"support"`
}

// Sentinel Class values for report averages.
const (
	ClassMacroAvg    = -1
	ClassWeightedAvg = -2
)

// ClassifyRequest for single message classification
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// BatchClassifyRequest for multiple messages
type BatchClassifyRequest struct {
	Messages []string `json:"messages" binding:"required,min=1"`
}

// Classification is the predicted value of every label for one message.
type Classification struct {
	Text   string         `json:"text"`
	Labels map[string]int `json:"labels"`
	Active []string       `json:"active"` // labels predicted non-zero, in label order
}

// LabelStats counts the non-zero and NULL values of one label column.
type LabelStats struct {
	Label    string `json:"label"`
	Positive int    `json:"positive"`
	Missing  int    `json:"missing"`
}

// DatasetStats summarizes the cleaned table.
type DatasetStats struct {
	Rows    int            `json:"rows"`
	ByGenre map[string]int `json:"by_genre"`
	Labels  []LabelStats   `json:"labels"`
}

// TrainingRunDetail is a run together with its report rows.
type TrainingRunDetail struct {
	*TrainingRun
	Metrics []LabelMetric `json:"metrics"`
}
