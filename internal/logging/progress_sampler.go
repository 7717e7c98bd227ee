package logging

// defaultByteStep spaces progress logs for transfers of unknown size.
const defaultByteStep = 8 << 20

// ProgressSampler thins out transfer progress logs. With a known total it
// emits once per percentage bucket; otherwise once per byteStep bytes.
type ProgressSampler struct {
	bucketSize float64
	byteStep   int64
	lastBucket int64
	started    bool
}

// NewProgressSampler constructs a sampler emitting every bucketSize percent
// (default 5) or every byteStep bytes when the total is unknown (default 8 MiB).
func NewProgressSampler(bucketSize float64, byteStep int64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	if byteStep <= 0 {
		byteStep = defaultByteStep
	}
	return &ProgressSampler{bucketSize: bucketSize, byteStep: byteStep, lastBucket: -1}
}

// ShouldLog reports whether the transfer state is worth a log line. The
// first call and the completing call always emit.
func (s *ProgressSampler) ShouldLog(written, total int64) bool {
	if s == nil {
		return true
	}
	var bucket int64
	if total > 0 {
		if written >= total {
			written = total
		}
		bucket = int64(float64(written) * 100 / float64(total) / s.bucketSize)
	} else {
		bucket = written / s.byteStep
	}
	if !s.started || bucket > s.lastBucket {
		s.started = true
		s.lastBucket = bucket
		return true
	}
	return false
}

// Reset prepares the sampler for a new transfer.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.started = false
	s.lastBucket = -1
}
