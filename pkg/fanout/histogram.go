package fanout

// DriveHistogram counts gate instances per drive-strength suffix before
// ("in") and after ("out") the rewrite pass. Buckets keep first-seen order.
type DriveHistogram struct {
	order []string
	in    map[string]int
	out   map[string]int
}

// NewDriveHistogram creates an empty histogram.
func NewDriveHistogram() *DriveHistogram {
	return &DriveHistogram{
		in:  make(map[string]int),
		out: make(map[string]int),
	}
}

func (h *DriveHistogram) bucket(suffix string) {
	if _, ok := h.in[suffix]; ok {
		return
	}
	h.order = append(h.order, suffix)
	h.in[suffix] = 0
	h.out[suffix] = 0
}

// Tally counts one instance of the original netlist.
func (h *DriveHistogram) Tally(suffix string) {
	h.bucket(suffix)
	h.in[suffix]++
	h.out[suffix]++
}

// Swap moves one instance from one suffix to another in the output.
func (h *DriveHistogram) Swap(from, to string) {
	h.bucket(from)
	h.bucket(to)
	h.out[from]--
	h.out[to]++
}

// AddOut counts an instance that exists only in the output, such as an
// inserted buffer.
func (h *DriveHistogram) AddOut(suffix string) {
	h.bucket(suffix)
	h.out[suffix]++
}

// Suffixes returns the buckets in first-seen order.
func (h *DriveHistogram) Suffixes() []string {
	return h.order
}

// In returns the input count of a bucket.
func (h *DriveHistogram) In(suffix string) int {
	return h.in[suffix]
}

// Out returns the output count of a bucket.
func (h *DriveHistogram) Out(suffix string) int {
	return h.out[suffix]
}
