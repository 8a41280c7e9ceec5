package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Meet/internal/adapters/rtc"
	"github.com/dkeye/Meet/internal/client"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/mesh"
	"github.com/dkeye/Meet/internal/roster"
)

const leaveTimeout = 3 * time.Second

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	return nil
}

func connect(ctx context.Context, deps *Dependencies, r *roster.Roster) (*client.Client, error) {
	cfg := deps.Config
	factory, err := rtc.NewFactory(cfg.ICEServers, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("initializing webrtc: %w", err)
	}

	meshCfg := mesh.DefaultConfig()
	meshCfg.NegotiationTimeout = cfg.NegotiationTimeout

	return client.Dial(ctx, cfg.ServerURL, client.Dependencies{
		Factory:    factory,
		Media:      mediaFor(cfg.Audio),
		Projection: roster.Tee(r, roster.NewConsole(os.Stdout)),
		Mesh:       meshCfg,
		Logger:     log.Logger,
	})
}

func mediaFor(audio bool) func() mesh.LocalMedia {
	return func() mesh.LocalMedia {
		if !audio {
			return rtc.NoMedia()
		}
		m, err := rtc.NewSilentAudio(context.Background())
		if err != nil {
			log.Warn().Err(err).Str("module", "cli").Msg("audio unavailable, joining without media")
			return rtc.NoMedia()
		}
		return m
	}
}

// runSession keeps the participant in the meeting until it ends, the
// connection drops, the user leaves, or ctx is cancelled.
func runSession(ctx context.Context, c *client.Client, r *roster.Roster, in io.Reader) error {
	p := newPrinter(os.Stdout)
	p.help()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return leave(c)
		case <-c.Done():
			return errors.New("connection to the coordinator lost")
		case <-ticker.C:
			if _, ended := r.Ended(); ended {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				return leave(c)
			}
			done, err := command(ctx, c, r, p, strings.TrimSpace(line))
			if err != nil {
				p.error(err)
			}
			if done {
				return nil
			}
		}
	}
}

func command(ctx context.Context, c *client.Client, r *roster.Roster, p *printer, line string) (bool, error) {
	switch line {
	case "":
		return false, nil
	case "/leave", "/quit":
		return true, leave(c)
	case "/end":
		return true, c.EndMeeting(ctx)
	case "/who":
		p.who(r.Entries())
		return false, nil
	case "/stats":
		packets, bytes := c.Received()
		p.stats(packets, bytes)
		return false, nil
	case "/retry":
		var errs []error
		for _, peer := range r.Degraded() {
			errs = append(errs, c.Retry(peer))
		}
		return false, errors.Join(errs...)
	case "/help":
		p.help()
		return false, nil
	}
	if fields := strings.Fields(line); len(fields) == 2 && (fields[0] == "/mute" || fields[0] == "/unmute") {
		peer, err := lookupPeer(r, fields[1])
		if err != nil {
			return false, err
		}
		return false, c.Mute(peer, fields[0] == "/mute")
	}
	if strings.HasPrefix(line, "/") {
		return false, fmt.Errorf("unknown command %s", line)
	}
	return false, c.Chat(ctx, line)
}

// lookupPeer finds a remote participant by name or id.
func lookupPeer(r *roster.Roster, who string) (domain.ParticipantID, error) {
	for _, e := range r.Entries() {
		if e.Self {
			continue
		}
		if strings.EqualFold(e.Name, who) || string(e.ID) == who {
			return e.ID, nil
		}
	}
	return "", fmt.Errorf("no participant named %s", who)
}

func leave(c *client.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()
	if err := c.Leave(ctx); err != nil && !errors.Is(err, client.ErrNoMeeting) {
		return err
	}
	return nil
}

type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) created(code domain.MeetingCode) {
	fmt.Fprintf(p.w, "✅ Meeting created: %s\n", code)
}

func (p *printer) help() {
	fmt.Fprintf(p.w, "ℹ️  Type to chat. Commands: /who /stats /retry /mute NAME /unmute NAME /leave /end /help\n")
}

func (p *printer) who(entries []roster.Entry) {
	fmt.Fprintf(p.w, "👥 Participants:\n\n")
	for _, e := range entries {
		var status string
		switch {
		case e.Self:
			status = " (you)"
		case e.Session == nil:
			status = " …"
		case e.Session.Degraded:
			status = " ⚠️ " + string(e.Session.State)
		default:
			status = " " + string(e.Session.State)
		}
		if e.IsHost() {
			status += " 👑"
		}
		fmt.Fprintf(p.w, "  %s%s\n", e.Name, status)
	}
}

func (p *printer) stats(packets, bytes uint64) {
	fmt.Fprintf(p.w, "📊 Received %d packets (%d bytes)\n", packets, bytes)
}

func (p *printer) error(err error) {
	fmt.Fprintf(p.w, "❌ %s\n", err)
}
