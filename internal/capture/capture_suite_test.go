package capture

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rdlab/internal/logger"
)

func TestCapture(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Capture Suite")
}

// blockingSurface hands out frames only when released, so a test can hold a
// capture in flight.
type blockingSurface struct {
	started chan struct{}
	release chan []byte
}

func newBlockingSurface() *blockingSurface {
	return &blockingSurface{started: make(chan struct{}, 1), release: make(chan []byte)}
}

func (b *blockingSurface) EncodeFrame(ctx context.Context) ([]byte, error) {
	b.started <- struct{}{}
	select {
	case data := <-b.release:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ = Describe("Sequencer", func() {
	var (
		ctx context.Context
		seq *Sequencer
		png []byte
	)

	BeforeEach(func() {
		ctx = context.Background()
		png = []byte{0x89, 'P', 'N', 'G'}
		seq = NewSequencer(SurfaceFunc(func(context.Context) ([]byte, error) { return png, nil }), logger.Nop())
	})

	Describe("a session of three frames", func() {
		It("names frames in capture order and goes idle at the end", func() {
			s := Begin(3, "frame_", false)
			Expect(s.Active()).To(BeTrue())

			for i := 0; i < 3; i++ {
				rec, err := seq.CaptureNext(ctx, s)
				Expect(err).NotTo(HaveOccurred())
				Expect(rec).NotTo(BeNil())
			}

			Expect(s.Active()).To(BeFalse())
			Expect(s.Complete()).To(BeTrue())
			names := []string{}
			for _, r := range s.Records() {
				names = append(names, r.Filename)
			}
			Expect(names).To(Equal([]string{"frame_00000.png", "frame_00001.png", "frame_00002.png"}))
		})

		It("ignores captures after the last frame", func() {
			s := Begin(3, "frame_", false)
			for i := 0; i < 5; i++ {
				_, err := seq.CaptureNext(ctx, s)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(s.Records()).To(HaveLen(3))
			Expect(s.CurrentFrame()).To(Equal(3))
		})
	})

	Describe("End", func() {
		It("keeps records and stops further captures", func() {
			s := Begin(10, "f", false)
			_, _ = seq.CaptureNext(ctx, s)
			s.End()

			rec, err := seq.CaptureNext(ctx, s)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(BeNil())
			Expect(s.Records()).To(HaveLen(1))
			Expect(s.Complete()).To(BeFalse())
		})

		It("lets an in-flight capture finish and keep its record", func() {
			surface := newBlockingSurface()
			seq = NewSequencer(surface, logger.Nop())
			s := Begin(10, "f", false)

			done := make(chan *FrameRecord)
			go func() {
				defer GinkgoRecover()
				rec, err := seq.CaptureNext(ctx, s)
				Expect(err).NotTo(HaveOccurred())
				done <- rec
			}()

			Eventually(surface.started).Should(Receive())
			s.End()
			surface.release <- png

			var rec *FrameRecord
			Eventually(done).Should(Receive(&rec))
			Expect(rec).NotTo(BeNil())
			Expect(rec.Filename).To(Equal("f00000.png"))
			Expect(s.Records()).To(HaveLen(1))
		})
	})

	Describe("re-entrancy", func() {
		It("drops a capture requested while another is in flight", func() {
			surface := newBlockingSurface()
			seq = NewSequencer(surface, logger.Nop())
			s := Begin(10, "f", false)

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				_, err := seq.CaptureNext(ctx, s)
				Expect(err).NotTo(HaveOccurred())
			}()
			Eventually(surface.started).Should(Receive())
			Expect(s.Capturing()).To(BeTrue())

			rec, err := seq.CaptureNext(ctx, s)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(BeNil())
			Expect(s.CurrentFrame()).To(Equal(0))

			surface.release <- png
			Eventually(done).Should(BeClosed())
			Expect(s.Capturing()).To(BeFalse())
			Expect(s.Records()).To(HaveLen(1))
			Expect(s.CurrentFrame()).To(Equal(1))
		})
	})

	Describe("failures", func() {
		It("reports a not-ready surface and allows a retry of the same frame", func() {
			calls := 0
			seq = NewSequencer(SurfaceFunc(func(context.Context) ([]byte, error) {
				calls++
				if calls == 1 {
					return nil, nil
				}
				return png, nil
			}), logger.Nop())
			s := Begin(2, "frame_", false)

			rec, err := seq.CaptureNext(ctx, s)
			Expect(rec).To(BeNil())
			Expect(errors.Is(err, ErrEncodeNotReady)).To(BeTrue())
			var nr *EncodeNotReadyError
			Expect(errors.As(err, &nr)).To(BeTrue())
			Expect(nr.Frame).To(Equal(0))
			Expect(s.Capturing()).To(BeFalse())
			Expect(s.CurrentFrame()).To(Equal(0))

			rec, err = seq.CaptureNext(ctx, s)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Filename).To(Equal("frame_00000.png"))
		})

		It("clears the flag when the surface errors", func() {
			boom := errors.New("context lost")
			seq = NewSequencer(SurfaceFunc(func(context.Context) ([]byte, error) {
				return nil, boom
			}), logger.Nop())
			s := Begin(1, "f", false)

			_, err := seq.CaptureNext(ctx, s)
			Expect(err).To(MatchError(boom))
			Expect(s.Capturing()).To(BeFalse())
			Expect(s.Active()).To(BeTrue())
		})
	})
})
