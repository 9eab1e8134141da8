package simulator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"meetingai/internal/domain"
)

const DefaultInterval = 400 * time.Millisecond

// DefaultScript is read out when no script is configured.
var DefaultScript = []string{
	"Good morning everyone, let's get started.",
	"First item is the quarterly budget, which finance has approved.",
	"The mobile launch moves to the second week of May.",
	"Priya will own the release checklist.",
	"We will revisit hiring at the next sync.",
}

type Config struct {
	Interval   time.Duration
	Script     []string
	StreamPath string
	// MinutesPath defaults to /generate-minutes.
	MinutesPath string
}

// Server is a stand-in for the transcription sidecar. While a meeting is
// active it reveals the script one word per tick to every connected client
// as a growing transcript, and it answers minutes requests with one bullet
// per sentence.
type Server struct {
	cfg   Config
	log   zerolog.Logger
	app   *fiber.App
	words []string

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	active   bool
	revealed int
}

func New(cfg Config, log zerolog.Logger) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if len(cfg.Script) == 0 {
		cfg.Script = DefaultScript
	}
	if cfg.StreamPath == "" {
		cfg.StreamPath = "/ws"
	}
	if cfg.MinutesPath == "" {
		cfg.MinutesPath = "/generate-minutes"
	}

	s := &Server{
		cfg:     cfg,
		log:     log.With().Str("component", "simulator").Logger(),
		words:   strings.Fields(strings.Join(cfg.Script, " ")),
		clients: make(map[*websocket.Conn]struct{}),
		active:  true,
	}
	s.app = s.routes()
	return s
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve listens on addr and advances the script until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = s.app.Shutdown()
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()

	s.log.Info().Str("addr", addr).Msg("simulator listening")
	return s.app.Listen(addr)
}

func (s *Server) routes() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(s.cfg.StreamPath, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get(s.cfg.StreamPath, websocket.New(s.handleStream))
	app.Post(s.cfg.MinutesPath, s.handleMinutes)
	return app
}

func (s *Server) handleStream(ws *websocket.Conn) {
	s.mu.Lock()
	s.clients[ws] = struct{}{}
	if !s.active {
		s.log.Info().Msg("client connected; resuming meeting")
		s.active = true
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, ws)
		s.mu.Unlock()
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

type minutesRequest struct {
	Transcript string `json:"transcript"`
}

func (s *Server) handleMinutes(c *fiber.Ctx) error {
	var req minutesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.log.Info().Int("transcript_len", len(req.Transcript)).Msg("meeting ended; generating minutes")

	minutes := Minutes(req.Transcript)
	if minutes == "" {
		return c.JSON(fiber.Map{"error": "transcript is empty"})
	}
	return c.JSON(fiber.Map{"minutes": minutes})
}

// Tick reveals the next word and broadcasts the transcript. It is a no-op
// while the meeting is ended, nobody is connected or the script is spent.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || len(s.clients) == 0 || s.revealed >= len(s.words) {
		return
	}
	s.revealed++
	event := frameFor(s.words[:s.revealed])

	for ws := range s.clients {
		if err := ws.WriteJSON(event); err != nil {
			s.log.Debug().Err(err).Msg("dropping client")
			delete(s.clients, ws)
		}
	}
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func frameFor(words []string) domain.TranscriptionEvent {
	return domain.TranscriptionEvent{
		Kind:      domain.EventKindTranscription,
		Text:      strings.Join(words, " "),
		IsPartial: !endsSentence(words[len(words)-1]),
	}
}

// Minutes turns a transcript into one bullet per sentence.
func Minutes(transcript string) string {
	sentences := lo.FilterMap(splitSentences(transcript), func(sentence string, _ int) (string, bool) {
		sentence = strings.TrimSpace(sentence)
		return "- " + sentence, sentence != ""
	})
	return strings.Join(sentences, "\n")
}

func splitSentences(text string) []string {
	var (
		out     []string
		current []string
	)
	for _, word := range strings.Fields(text) {
		current = append(current, word)
		if endsSentence(word) {
			out = append(out, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, " "))
	}
	return out
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "?") || strings.HasSuffix(word, "!")
}
