// Package driver implements the generic sliding-window loop: given a
// Storage of raw elements and a Pattern describing the aperture's shift
// geometry, it walks a requested output range, calling back into a kernel
// for each element's result and sliding the aperture by one element
// between calls.
//
// The package never implements Storage or Pattern itself; those are
// supplied by internal/matrix and internal/pattern as externalised
// collaborators.
package driver

// Storage is the read-only collaborator the driver pulls raw elements
// from. Exactly one of GetInt / GetDouble is meaningful for a given
// element type; callers know which from the quantiser they built.
type Storage interface {
	// Length returns the number of elements along the scanned axis.
	Length() int64
	// GetInt reads element i as an integer. Valid for integer/bit types.
	GetInt(i int64) int64
	// GetDouble reads element i as a float. Valid for float types.
	GetDouble(i int64) float64
	// ElementBits returns the native bit width of the stored element type.
	ElementBits() int
	// IsFloat reports whether elements are read via GetDouble rather than
	// GetInt.
	IsFloat() bool
	// BackingBuffer returns a contiguous native buffer and the offset of
	// element 0 within it, if the storage is backed by one contiguous
	// slice. ok is false when no such buffer exists (e.g. a tiled or
	// wrapping view), in which case the driver falls back to GetInt/
	// GetDouble.
	BackingBuffer() (buf any, offset int, ok bool)
}

// Pattern is the aperture's shift geometry, expressed purely as shift
// vectors in flat-index units.
type Pattern interface {
	// Shifts lists every offset composing the aperture, used to rebuild a
	// histogram from scratch on a cache miss.
	Shifts() []int64
	// Left lists the offsets included when sliding forward by one.
	Left() []int64
	// Right lists the offsets excluded when sliding forward by one.
	Right() []int64
}

// Context threads cancellation and progress reporting through a driver
// run, the same context.Context + progress-broadcast shape
// internal/server/worker.go's runJob uses to drive a background job.
type Context interface {
	// CheckCancelled returns a non-nil error if the run should abort at
	// the next poll point.
	CheckCancelled() error
	// ReportProgress is called periodically with elements processed so
	// far and the total requested.
	ReportProgress(done, total int64)
}

// pollInterval is how often (in processed elements) the loop polls
// Context.CheckCancelled / reports progress: at least once per ≈65,536
// processed elements.
const pollInterval = 65536

// noopContext satisfies Context for callers that don't need cancellation
// or progress reporting (e.g. tests, one-shot CLI runs).
type noopContext struct{}

func (noopContext) CheckCancelled() error      { return nil }
func (noopContext) ReportProgress(_, _ int64) {}

// NoopContext returns a Context that never cancels and discards progress.
func NoopContext() Context { return noopContext{} }

// Aperture is the stateful collaborator a kernel gives the driver: it
// knows how to fold a quantised element into its own state (rebuild
// include, slide include/exclude) and how to read the current result.
// Kernels (internal/kernel) implement this over a *rankhist.Histogram,
// a *rankhist.Pair, or a bare scalar sum, keeping the sliding-window
// mechanics here generic over all of them.
type Aperture interface {
	// Reset clears any accumulated state before a full rebuild.
	Reset()
	// Include folds one element (already read from Storage, not yet
	// quantised) into the aperture state.
	Include(raw float64)
	// Exclude removes one element previously folded in by Include.
	Exclude(raw float64)
	// Result computes the current per-element output. pos is the
	// element index the result is being produced for.
	Result(pos int64) (float64, error)
}

// Run walks the half-open range [arrayPos, arrayPos+count) of storage,
// producing one float64 per element via ap, sliding by Pattern.Left/Right
// between elements, and wrapping indices circularly modulo storage's
// length. rebuildHint, when non-nil, is consulted before falling back to
// a full rebuild from Pattern.Shifts (the histogram-cache fast path);
// onRebuild is called after every full rebuild so the caller can refresh
// its cache entry. onComplete, when non-nil, is called once after the
// aperture has been slid past the last output position, with the
// position a contiguous follow-up chunk would start at — the cache entry
// a subsequent Run's rebuildHint needs to turn its own first position
// into a hit instead of a rebuild.
func Run(
	ctx Context,
	storage Storage,
	pattern Pattern,
	ap Aperture,
	arrayPos, count int64,
	rebuildHint func(pos int64) bool,
	onRebuild func(pos int64),
	onComplete func(pos int64),
) ([]float64, error) {
	length := storage.Length()
	if length <= 0 || arrayPos < 0 || count < 0 || arrayPos+count > length {
		return nil, &rangeError{arrayPos: arrayPos, count: count, length: length}
	}

	out := make([]float64, count)
	pos := arrayPos
	sincePoll := int64(0)

	rebuild := func() error {
		ap.Reset()
		for _, s := range pattern.Shifts() {
			ap.Include(readAt(storage, wrap(pos-s, length)))
		}
		if onRebuild != nil {
			onRebuild(pos)
		}
		if err := ctx.CheckCancelled(); err != nil {
			return err
		}
		return nil
	}

	hit := rebuildHint != nil && rebuildHint(pos)
	if !hit {
		if err := rebuild(); err != nil {
			return nil, err
		}
	}

	left, right := pattern.Left(), pattern.Right()
	slide := func() {
		for _, s := range right {
			ap.Exclude(readAt(storage, wrap(pos-s, length)))
		}
		pos = wrap(pos+1, length)
		for _, s := range left {
			ap.Include(readAt(storage, wrap(pos-s, length)))
		}
	}

	for i := int64(0); i < count; i++ {
		result, err := ap.Result(pos)
		if err != nil {
			return nil, err
		}
		out[i] = result

		if i == count-1 {
			if onComplete != nil {
				slide()
				onComplete(pos)
			}
			break
		}

		slide()

		sincePoll++
		if sincePoll >= pollInterval {
			sincePoll = 0
			ctx.ReportProgress(i+1, count)
			if err := ctx.CheckCancelled(); err != nil {
				return nil, err
			}
		}
	}

	ctx.ReportProgress(count, count)
	return out, nil
}

func readAt(s Storage, i int64) float64 {
	if s.IsFloat() {
		return s.GetDouble(i)
	}
	return float64(s.GetInt(i))
}

func wrap(i, length int64) int64 {
	m := i % length
	if m < 0 {
		m += length
	}
	return m
}

type rangeError struct {
	arrayPos, count, length int64
}

func (e *rangeError) Error() string {
	return "driver: range out of bounds"
}
