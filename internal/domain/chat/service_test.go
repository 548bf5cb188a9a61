package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	stdimage "image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"chopchop-server-go/internal/platform/config"
	"chopchop-server-go/internal/platform/logging"
	"chopchop-server-go/internal/platform/storage"

	"chopchop-server-go/internal/domain/eventbus"
	"chopchop-server-go/internal/domain/image"
	"chopchop-server-go/internal/domain/model"
	"chopchop-server-go/internal/domain/reply"
)

type fakeProvider struct {
	completion string
	err        error
	lastReq    model.Request
}

func (f *fakeProvider) Converse(_ context.Context, req model.Request) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.completion, nil
}

type fakeHistory struct {
	messages []storage.ChatMessage
}

func (f *fakeHistory) List(context.Context, string, int) ([]storage.ChatMessage, error) {
	return f.messages, nil
}

func testModelConfig() *config.ModelConfig {
	return &config.ModelConfig{
		ModelName: "test-model",
		Plain:     config.SamplingConfig{MaxTokens: 512, Temperature: 0.5, TopP: 0.9},
		Recipe:    config.SamplingConfig{MaxTokens: 2048, Temperature: 0.3, TopP: 0.9},
	}
}

func newTestService(t *testing.T, provider *fakeProvider, history HistoryReader) (*Service, *eventbus.AsyncEventBus) {
	t.Helper()

	logger, err := logging.New(logging.Config{Level: "error", Dir: t.TempDir(), Filename: "test.log"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	bus := eventbus.NewAsyncEventBus(2)
	bus.Start()
	t.Cleanup(bus.Stop)

	imgCfg := &config.ImageConfig{
		MaxUploadBytes: 8 << 20,
		MaxOutputBytes: 4 << 20,
		MaxDimension:   2048,
		MaxPixels:      16777216,
	}
	normalizer := image.NewNormalizer(imgCfg, logger)

	if history == nil {
		history = &fakeHistory{}
	}
	return NewService(provider, normalizer, history, bus, testModelConfig(), logger), bus
}

func testAttachment(t *testing.T) *image.Attachment {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &image.Attachment{
		Data:   base64.StdEncoding.EncodeToString(buf.Bytes()),
		Format: "jpeg",
	}
}

func TestChatPlainPath(t *testing.T) {
	provider := &fakeProvider{completion: "Try adding some basil."}
	svc, _ := newTestService(t, provider, nil)

	resp, err := svc.Chat(context.Background(), Request{
		Email:   "a@b.com",
		Message: "how do I improve my tomato sauce?",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.RecipeRequest {
		t.Error("text-only turn classified as recipe request")
	}
	if resp.Reply.Type != reply.TypeText {
		t.Errorf("reply type = %s, want text", resp.Reply.Type)
	}
	if provider.lastReq.Params.MaxTokens != 512 {
		t.Errorf("max tokens = %d, want plain-path 512", provider.lastReq.Params.MaxTokens)
	}
	if provider.lastReq.Image != nil {
		t.Error("image forwarded on a text-only turn")
	}
}

func TestChatRecipePath(t *testing.T) {
	provider := &fakeProvider{completion: `{"ingredients":["tomato"],"grocery_list":[],"recipes":[{"id":"salsa","title":"Salsa"}]}`}
	svc, bus := newTestService(t, provider, nil)

	resp, err := svc.Chat(context.Background(), Request{
		Email:   "a@b.com",
		Message: "analyze my fridge",
		Image:   testAttachment(t),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if !resp.RecipeRequest {
		t.Error("keyword plus image not classified as recipe request")
	}
	if resp.Reply.Type != reply.TypeStructured {
		t.Errorf("reply type = %s, want structured", resp.Reply.Type)
	}
	if provider.lastReq.Params.MaxTokens != 2048 {
		t.Errorf("max tokens = %d, want recipe-path 2048", provider.lastReq.Params.MaxTokens)
	}
	if provider.lastReq.Image == nil {
		t.Fatal("image not forwarded on recipe path")
	}
	if provider.lastReq.Image.Format != "jpeg" {
		t.Errorf("image format = %s, want jpeg", provider.lastReq.Image.Format)
	}

	bus.WaitAsync()
}

func TestChatImageWithoutKeywordStaysPlain(t *testing.T) {
	provider := &fakeProvider{completion: "Looks like a nice orange square."}
	svc, _ := newTestService(t, provider, nil)

	resp, err := svc.Chat(context.Background(), Request{
		Email:   "a@b.com",
		Message: "what is this?",
		Image:   testAttachment(t),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.RecipeRequest {
		t.Error("image without keyword classified as recipe request")
	}
	// image still rides along on the plain path
	if provider.lastReq.Image == nil {
		t.Error("image not forwarded on plain path")
	}
	if provider.lastReq.Params.MaxTokens != 512 {
		t.Errorf("max tokens = %d, want plain-path 512", provider.lastReq.Params.MaxTokens)
	}
}

func TestChatRejectsEmptyTurn(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{}, nil)

	_, err := svc.Chat(context.Background(), Request{Email: "a@b.com", Message: "   "})
	if err == nil {
		t.Fatal("expected error for empty turn")
	}
}

func TestChatIncludesHistoryOldestFirst(t *testing.T) {
	now := time.Now()
	history := &fakeHistory{messages: []storage.ChatMessage{
		{Role: "assistant", Content: "second", CreatedAt: now},
		{Role: "user", Content: "first", CreatedAt: now.Add(-time.Minute)},
	}}
	provider := &fakeProvider{completion: "ok"}
	svc, _ := newTestService(t, provider, history)

	if _, err := svc.Chat(context.Background(), Request{Email: "a@b.com", Message: "third"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if len(provider.lastReq.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(provider.lastReq.History))
	}
	if provider.lastReq.History[0].Content != "first" {
		t.Errorf("history[0] = %q, want oldest turn first", provider.lastReq.History[0].Content)
	}
}

func TestChatRejectsBadAttachment(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{completion: "ok"}, nil)

	_, err := svc.Chat(context.Background(), Request{
		Email:   "a@b.com",
		Message: "analyze this",
		Image:   &image.Attachment{Data: "!!!", Format: "jpeg"},
	})
	if err == nil {
		t.Fatal("expected error for undecodable attachment")
	}
}
