package ml

// ClassMetrics are precision, recall and F1 for one class, or an average
// over classes.
type ClassMetrics struct {
	Class     int
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is a per-class classification report for a single label.
type Report struct {
	Classes     []ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
}

// ClassificationReport compares predictions with the true values. Classes
// are the union of both, ascending. Undefined ratios are 0.
func ClassificationReport(truth, pred []int) Report {
	classes := uniqueSorted(append(append([]int(nil), truth...), pred...))

	tp := make(map[int]int)
	predicted := make(map[int]int)
	actual := make(map[int]int)
	correct := 0
	for i := range truth {
		actual[truth[i]]++
		predicted[pred[i]]++
		if truth[i] == pred[i] {
			tp[truth[i]]++
			correct++
		}
	}

	var r Report
	total := len(truth)
	for _, c := range classes {
		m := ClassMetrics{
			Class:     c,
			Precision: ratio(tp[c], predicted[c]),
			Recall:    ratio(tp[c], actual[c]),
			Support:   actual[c],
		}
		m.F1 = f1(m.Precision, m.Recall)
		r.Classes = append(r.Classes, m)

		r.MacroAvg.Precision += m.Precision
		r.MacroAvg.Recall += m.Recall
		r.MacroAvg.F1 += m.F1
		w := float64(m.Support)
		r.WeightedAvg.Precision += w * m.Precision
		r.WeightedAvg.Recall += w * m.Recall
		r.WeightedAvg.F1 += w * m.F1
	}

	r.Accuracy = ratio(correct, total)
	if n := float64(len(classes)); n > 0 {
		r.MacroAvg.Precision /= n
		r.MacroAvg.Recall /= n
		r.MacroAvg.F1 /= n
	}
	if total > 0 {
		r.WeightedAvg.Precision /= float64(total)
		r.WeightedAvg.Recall /= float64(total)
		r.WeightedAvg.F1 /= float64(total)
	}
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total
	return r
}

// SubsetAccuracy is the fraction of rows whose every label is predicted
// correctly.
func SubsetAccuracy(truth, pred [][]int) float64 {
	if len(truth) == 0 {
		return 0
	}
	correct := 0
	for i := range truth {
		match := true
		for j := range truth[i] {
			if truth[i][j] != pred[i][j] {
				match = false
				break
			}
		}
		if match {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
