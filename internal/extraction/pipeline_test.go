package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"call-bridge/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPipelineRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExtractor := NewMockExtractor(ctrl)
	mockSink := NewMockSink(ctrl)
	pipeline := NewPipeline(mockExtractor, mockSink, time.Second, observability.NewLogger())

	transcript := "Caller: Hej, jeg hedder Anna\nAgent: Hej Anna"
	want := Result{CustomerName: "Anna", CustomerAvailability: "", SpecialNotes: ""}

	mockExtractor.EXPECT().Name().Return("fake").AnyTimes()
	mockExtractor.EXPECT().Extract(gomock.Any(), Request{
		Instruction: Instruction,
		Transcript:  transcript,
		SchemaName:  SchemaName,
		Fields:      ResultFields,
	}).Return(`{"customerName":"Anna","customerAvailability":"","specialNotes":""}`, nil)
	mockSink.EXPECT().Deliver(gomock.Any(), want).Return(nil)

	got, err := pipeline.Run(context.Background(), "CA123", transcript)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPipelineRun_MalformedResultSkipsSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	core, logs := observer.New(zapcore.InfoLevel)
	mockExtractor := NewMockExtractor(ctrl)
	mockSink := NewMockSink(ctrl)
	pipeline := NewPipeline(mockExtractor, mockSink, time.Second, observability.NewLoggerWithCore(core))

	mockExtractor.EXPECT().Name().Return("fake").AnyTimes()
	mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).Return("I could not find a name.", nil)
	mockSink.EXPECT().Deliver(gomock.Any(), gomock.Any()).Times(0)

	var err error
	assert.NotPanics(t, func() {
		_, err = pipeline.Run(context.Background(), "CA123", "Caller: ...")
	})
	assert.ErrorIs(t, err, ErrMalformedResult)
	assert.Contains(t, err.Error(), "result not delivered")
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len(), "failures are reported by the caller")
}

func TestPipelineRun_ExtractorErrorSkipsSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExtractor := NewMockExtractor(ctrl)
	mockSink := NewMockSink(ctrl)
	pipeline := NewPipeline(mockExtractor, mockSink, time.Second, observability.NewLogger())

	boom := errors.New("provider unavailable")
	mockExtractor.EXPECT().Name().Return("fake").AnyTimes()
	mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).Return("", boom)
	mockSink.EXPECT().Deliver(gomock.Any(), gomock.Any()).Times(0)

	_, err := pipeline.Run(context.Background(), "CA123", "")
	assert.ErrorIs(t, err, boom)
}

func TestPipelineRun_EmptyTranscriptStillExtracts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExtractor := NewMockExtractor(ctrl)
	mockSink := NewMockSink(ctrl)
	pipeline := NewPipeline(mockExtractor, mockSink, time.Second, observability.NewLogger())

	mockExtractor.EXPECT().Name().Return("fake").AnyTimes()
	mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req Request) (string, error) {
			assert.Empty(t, req.Transcript)
			return `{"customerName":"","customerAvailability":"","specialNotes":""}`, nil
		})
	mockSink.EXPECT().Deliver(gomock.Any(), Result{}).Return(nil)

	_, err := pipeline.Run(context.Background(), "CA123", "")
	assert.NoError(t, err)
}

func TestPipelineRun_SinkFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExtractor := NewMockExtractor(ctrl)
	mockSink := NewMockSink(ctrl)
	pipeline := NewPipeline(mockExtractor, mockSink, time.Second, observability.NewLogger())

	mockExtractor.EXPECT().Name().Return("fake").AnyTimes()
	mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(`{"customerName":"Anna","customerAvailability":"","specialNotes":""}`, nil)
	mockSink.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(ErrSinkRejected).Times(1)

	result, err := pipeline.Run(context.Background(), "CA123", "Caller: Anna")
	assert.ErrorIs(t, err, ErrSinkRejected)
	assert.Equal(t, "Anna", result.CustomerName)
}

func TestPipelineExtract_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExtractor := NewMockExtractor(ctrl)
	pipeline := NewPipeline(mockExtractor, NewMockSink(ctrl), 20*time.Millisecond, observability.NewLogger())

	mockExtractor.EXPECT().Name().Return("fake").AnyTimes()
	mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	_, err := pipeline.Extract(context.Background(), "Caller: hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
