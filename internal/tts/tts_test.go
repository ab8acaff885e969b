package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pollysdk "github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	ref, err := Nop{}.Synthesize(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestOpenTTS_WritesWav(t *testing.T) {
	queries := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" {
			http.NotFound(w, r)
			return
		}
		queries <- r.URL.Query()
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFFwav"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	o := NewOpenTTS(OpenTTSConfig{BaseURL: srv.URL, AudioDir: dir}, srv.Client())

	name, err := o.Synthesize(context.Background(), "a crisp screen forms & lanes shut")
	require.NoError(t, err)
	q := <-queries
	assert.Equal(t, "coqui-tts:en_ljspeech", q.Get("voice"))
	assert.Equal(t, "a crisp screen forms & lanes shut", q.Get("text"))
	assert.True(t, strings.HasPrefix(name, "opentts_"))
	assert.True(t, strings.HasSuffix(name, ".wav"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "RIFFwav", string(data))
}

func TestOpenTTS_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	o := NewOpenTTS(OpenTTSConfig{BaseURL: srv.URL, AudioDir: t.TempDir()}, srv.Client())

	_, err := o.Synthesize(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyText)

	_, err = o.Synthesize(context.Background(), "hello")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

type fakePollyClient struct {
	in  *pollysdk.SynthesizeSpeechInput
	out *pollysdk.SynthesizeSpeechOutput
	err error
}

func (f *fakePollyClient) SynthesizeSpeech(ctx context.Context, params *pollysdk.SynthesizeSpeechInput, optFns ...func(*pollysdk.Options)) (*pollysdk.SynthesizeSpeechOutput, error) {
	f.in = params
	return f.out, f.err
}

type fakeAPIError struct {
	code string
	msg  string
}

func (e fakeAPIError) Error() string                 { return e.code + ": " + e.msg }
func (e fakeAPIError) ErrorCode() string             { return e.code }
func (e fakeAPIError) ErrorMessage() string          { return e.msg }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestPolly_WritesMp3(t *testing.T) {
	dir := t.TempDir()
	fake := &fakePollyClient{out: &pollysdk.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(bytes.NewReader([]byte("mp3"))),
	}}
	p := NewPollyWithClient(PollyConfig{AudioDir: dir}, fake)

	name, err := p.Synthesize(context.Background(), "drive on")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".mp3"))
	assert.Equal(t, pollytypes.OutputFormatMp3, fake.in.OutputFormat)
	assert.Equal(t, pollytypes.EngineNeural, fake.in.Engine)
	assert.Equal(t, pollytypes.VoiceId("Matthew"), fake.in.VoiceId)
	assert.Equal(t, "drive on", *fake.in.Text)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "mp3", string(data))
}

func TestPolly_Errors(t *testing.T) {
	apiErr := fakeAPIError{code: "TextLengthExceededException", msg: "too long"}
	p := NewPollyWithClient(PollyConfig{AudioDir: t.TempDir(), Engine: "standard"}, &fakePollyClient{err: apiErr})

	_, err := p.Synthesize(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TextLengthExceededException")
	var got smithy.APIError
	require.True(t, errors.As(err, &got))

	p = NewPollyWithClient(PollyConfig{AudioDir: t.TempDir()}, &fakePollyClient{out: &pollysdk.SynthesizeSpeechOutput{}})
	_, err = p.Synthesize(context.Background(), "x")
	require.Error(t, err)

	_, err = p.Synthesize(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyText)
}
