package result

import "time"

// Trial is one (executable, file, thread count) unit of measurement.
type Trial struct {
	Executable string `json:"executable"`
	File       string `json:"file"`
	Threads    int    `json:"threads"`
}

// Sample is the outcome of a single Trial. Value holds the last line the
// solver printed; it is empty and meaningless when TimedOut is set.
// CleanedUp is set when a cleanup step ran after the timeout.
type Sample struct {
	Trial     Trial         `json:"trial"`
	Value     string        `json:"value"`
	TimedOut  bool          `json:"timed_out"`
	CleanedUp bool          `json:"cleaned_up"`
	Elapsed   time.Duration `json:"elapsed"`
}

type Point struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Series is a named sequence of points kept in the order they were added.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

func (s *Series) Append(x, y string) {
	s.Points = append(s.Points, Point{X: x, Y: y})
}

// Informative reports whether the series has enough points to draw a line.
func (s *Series) Informative() bool {
	return len(s.Points) >= 2
}

// SweepResult is the filtered set of series handed to rendering.
type SweepResult struct {
	Title  string   `json:"title"`
	XLabel string   `json:"x_label"`
	YLabel string   `json:"y_label"`
	Series []Series `json:"series"`
}

// XLabels returns every distinct X label across all series in first-seen order.
func (r *SweepResult) XLabels() []string {
	seen := map[string]bool{}
	var labels []string
	for _, s := range r.Series {
		for _, p := range s.Points {
			if !seen[p.X] {
				seen[p.X] = true
				labels = append(labels, p.X)
			}
		}
	}
	return labels
}
