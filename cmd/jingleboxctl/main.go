// Package main provides the command-line client entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/jinglebox/internal/api/connect"
)

var (
	app    = kingpin.New("jingleboxctl", "jinglebox command-line client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("JINGLEBOX_SERVER").String()
	token  = app.Flag("token", "Control token for admin commands (or set JINGLEBOX_CONTROL_TOKEN env)").Envar("JINGLEBOX_CONTROL_TOKEN").String()

	// mount command
	mountCmd = app.Command("mount", "Mount a new page")
	mountEnv = mountCmd.Arg("environment", "Environment (User-Agent) string").String()

	// page commands
	startCmd    = app.Command("start", "Start playback (user gesture)")
	startPage   = startCmd.Arg("page-id", "Page ID").Required().String()
	toggleCmd   = app.Command("toggle", "Toggle play/pause")
	togglePage  = toggleCmd.Arg("page-id", "Page ID").Required().String()
	playCmd     = app.Command("play", "Play")
	playPage    = playCmd.Arg("page-id", "Page ID").Required().String()
	pauseCmd    = app.Command("pause", "Pause")
	pausePage   = pauseCmd.Arg("page-id", "Page ID").Required().String()
	nextCmd     = app.Command("next", "Next track")
	nextPage    = nextCmd.Arg("page-id", "Page ID").Required().String()
	prevCmd     = app.Command("prev", "Previous track").Alias("previous")
	prevPage    = prevCmd.Arg("page-id", "Page ID").Required().String()
	selectCmd   = app.Command("select", "Jump to a playlist index")
	selectPage  = selectCmd.Arg("page-id", "Page ID").Required().String()
	selectIndex = selectCmd.Arg("index", "Playlist index (0-based)").Required().Int()
	seekCmd     = app.Command("seek", "Seek to a position")
	seekPage    = seekCmd.Arg("page-id", "Page ID").Required().String()
	seekSeconds = seekCmd.Arg("seconds", "Position in seconds").Required().Float64()
	stateCmd    = app.Command("state", "Show page state")
	statePage   = stateCmd.Arg("page-id", "Page ID").Required().String()
	openCmd     = app.Command("open", "Open the page outside the in-app browser")
	openPage    = openCmd.Arg("page-id", "Page ID").Required().String()
	closeCmd    = app.Command("close", "Unmount a page")
	closePage   = closeCmd.Arg("page-id", "Page ID").Required().String()

	// watch command
	watchCmd  = app.Command("watch", "Stream playback events")
	watchPage = watchCmd.Arg("page-id", "Page ID (all pages when omitted)").String()

	// playlist command
	playlistCmd = app.Command("playlist", "Show the playlist")

	// admin commands
	statusCmd     = app.Command("status", "Show server status (requires token)")
	unmountAllCmd = app.Command("unmount-all", "Unmount every page (requires token)")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Create client
	client := apiconnect.NewClient(http.DefaultClient, *server, *token)

	ctx := context.Background()

	// Execute command
	var err error
	switch command {
	case mountCmd.FullCommand():
		err = mount(ctx, client, *mountEnv)
	case startCmd.FullCommand():
		err = printState(client.StartPlayback(ctx, *startPage))
	case toggleCmd.FullCommand():
		err = printState(client.TogglePlay(ctx, *togglePage))
	case playCmd.FullCommand():
		err = printState(client.Play(ctx, *playPage))
	case pauseCmd.FullCommand():
		err = printState(client.Pause(ctx, *pausePage))
	case nextCmd.FullCommand():
		err = printState(client.Next(ctx, *nextPage))
	case prevCmd.FullCommand():
		err = printState(client.Previous(ctx, *prevPage))
	case selectCmd.FullCommand():
		err = printState(client.Select(ctx, *selectPage, *selectIndex))
	case seekCmd.FullCommand():
		err = printState(client.Seek(ctx, *seekPage, *seekSeconds))
	case stateCmd.FullCommand():
		err = printState(client.GetState(ctx, *statePage))
	case openCmd.FullCommand():
		err = open(ctx, client, *openPage)
	case closeCmd.FullCommand():
		err = client.Unmount(ctx, *closePage)
		if err == nil {
			fmt.Println("Page closed")
		}
	case watchCmd.FullCommand():
		err = watch(ctx, client, *watchPage)
	case playlistCmd.FullCommand():
		err = playlist(ctx, client)
	case statusCmd.FullCommand():
		err = status(ctx, client)
	case unmountAllCmd.FullCommand():
		err = unmountAll(ctx, client)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func mount(ctx context.Context, client *apiconnect.Client, env string) error {
	resp, err := client.Mount(ctx, env)
	if err != nil {
		return err
	}

	fmt.Printf("Mounted! Page ID: %s\n", resp.Page.PageID)
	fmt.Printf("  Restricted:  %v", resp.Page.Restricted)
	if resp.Page.Signature != "" {
		fmt.Printf(" (%s)", resp.Page.Signature)
	}
	fmt.Println()
	fmt.Printf("  Platform:    %s\n", resp.Page.Platform)
	fmt.Printf("  External URL: %s\n", resp.Page.ExternalURL)
	if resp.State.Gate == "awaiting_user_start" {
		fmt.Println("  Tap start to begin playback: jingleboxctl start " + resp.Page.PageID)
	}
	return nil
}

func printState(state *apiconnect.PlaybackState, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(formatState(state))
	return nil
}

func formatState(s *apiconnect.PlaybackState) string {
	return fmt.Sprintf("%s [%d] %s - %s  %s / %s  (%s, %s, gate %s)",
		formatIntent(s.Intent), s.Position, s.Track.Title, s.Track.Artist,
		s.CurrentTimeLabel, s.DurationLabel, s.Lifecycle, s.Intent, s.Gate)
}

func formatIntent(intent string) string {
	switch intent {
	case "playing":
		return "▶️ "
	case "paused":
		return "⏸ "
	default:
		return "❓"
	}
}

func open(ctx context.Context, client *apiconnect.Client, pageID string) error {
	url, err := client.OpenExternally(ctx, pageID)
	if err != nil {
		return err
	}
	fmt.Printf("Open in browser: %s\n", url)
	return nil
}

func watch(ctx context.Context, client *apiconnect.Client, pageID string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching playback events. Press Ctrl+C to exit.")
	err := client.SubscribeEvents(ctx, pageID, func(ev *apiconnect.Event) bool {
		line := fmt.Sprintf("#%d %s %s", ev.SequenceNo, ev.PageID, ev.Type)
		if ev.Code != "" {
			line += " (" + ev.Code + ")"
		}
		fmt.Printf("%s\n    %s\n", line, formatState(&ev.State))
		return true
	})
	if ctx.Err() != nil {
		fmt.Println("\nStopped.")
		return nil
	}
	return err
}

func playlist(ctx context.Context, client *apiconnect.Client) error {
	pl, err := client.GetPlaylist(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d tracks)\n", pl.Name, len(pl.Tracks))
	for _, t := range pl.Tracks {
		fmt.Printf("  %2d  %-30s %-24s %6s  %s\n", t.Index, t.Title, t.Artist, t.Duration, t.ExternalID)
	}
	return nil
}

func status(ctx context.Context, client *apiconnect.Client) error {
	resp, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Playlist:    %s (%d tracks)\n", resp.PlaylistName, resp.TrackCount)
	fmt.Printf("Subscribers: %d\n", resp.Subscribers)
	fmt.Printf("Pages:       %d\n", len(resp.Pages))
	for _, p := range resp.Pages {
		fmt.Printf("  %s  restricted=%v platform=%s browser=%q mounted=%s\n",
			p.PageID, p.Restricted, p.Platform, p.Browser, p.MountedAt.Format("15:04:05"))
	}
	return nil
}

func unmountAll(ctx context.Context, client *apiconnect.Client) error {
	n, err := client.UnmountAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Unmounted %d pages\n", n)
	return nil
}
