package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"

	"github.com/NicolasHaas/chanrelay/pkg/client"
	"github.com/NicolasHaas/chanrelay/pkg/logging"
	"github.com/NicolasHaas/chanrelay/pkg/version"
)

func main() {
	settingsPath := flag.String("settings", client.SettingsPath(), "YAML settings file")
	channel := flag.String("channel", "", "Channel joined on startup (overrides settings)")
	keepalive := flag.Duration("keepalive", 0, "Send KEEPALIVE after this much silence (overrides settings)")
	bookmark := flag.String("bookmark", "", "Connect using a saved bookmark")
	save := flag.String("save", "", "Save this connection as a bookmark")
	bookmarksPath := flag.String("bookmarks", "", "Bookmarks file (default servers.yaml next to the binary)")
	logLevel := flag.String("log-level", "", "Log level: "+logging.LevelNames())
	saveSettings := flag.Bool("save-settings", false, "Write the effective settings back to the settings file")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <host> <port> <username>\n       %s [flags] -bookmark <name>\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().Full())
		return
	}

	settings, err := client.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *channel != "" {
		settings.DefaultChannel = *channel
	}
	if *keepalive > 0 {
		settings.KeepaliveQuiet = *keepalive
	}
	if *logLevel != "" {
		settings.LogLevel = *logLevel
	}
	if settings.LogLevel == "" {
		settings.LogLevel = os.Getenv("CHANRELAY_LOG_LEVEL")
	}
	if settings.LogLevel == "" {
		settings.LogLevel = "warn"
	}

	// Logs go to stderr so they do not interleave with chat output.
	if err := logging.Setup(logging.Options{Level: settings.LogLevel, Format: "text", Output: os.Stderr}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	if *saveSettings {
		if err := settings.Save(*settingsPath); err != nil {
			slog.Warn("save settings", "err", err)
		} else {
			pterm.Info.Printfln("Settings saved to %s", *settingsPath)
		}
	}

	bookmarks := client.NewBookmarkStore(*bookmarksPath)
	if err := bookmarks.Load(); err != nil {
		slog.Warn("load bookmarks", "err", err)
	}

	addr, username, err := target(bookmarks, *bookmark)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	if name := firstNonEmpty(*save, *bookmark); name != "" {
		bookmarks.Put(client.Bookmark{Name: name, Addr: addr, Username: username})
		bookmarks.Touch(name, time.Now().Unix())
		if err := bookmarks.Save(); err != nil {
			slog.Warn("save bookmarks", "err", err)
		}
	}

	if err := run(addr, username, settings); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

// target resolves the server address and username from a bookmark or the
// positional arguments.
func target(bookmarks *client.BookmarkStore, name string) (addr, username string, err error) {
	if name != "" {
		b := bookmarks.Find(name)
		if b == nil {
			return "", "", fmt.Errorf("unknown bookmark %q", name)
		}
		return b.Addr, b.Username, nil
	}
	if flag.NArg() != 3 {
		return "", "", fmt.Errorf("expected <host> <port> <username>")
	}
	return net.JoinHostPort(flag.Arg(0), flag.Arg(1)), flag.Arg(2), nil
}

func run(addr, username string, settings *client.Settings) error {
	c, err := client.Dial(addr)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shell := client.NewShell(c, os.Stdout)

	go func() {
		if err := c.ReceiveLoop(ctx, shell.HandleResponse); err != nil {
			slog.Error("receive loop", "err", err)
		}
	}()
	go c.KeepaliveLoop(ctx, settings.KeepaliveCheck, settings.KeepaliveQuiet)

	if err := c.Login(username); err != nil {
		return err
	}
	pterm.Info.Printfln("Sent LOGIN as '%s'", username)
	if err := shell.JoinDefault(settings.DefaultChannel); err != nil {
		return err
	}

	// Stdin blocks without a deadline, so a signal ends the process directly.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		_ = c.Logout()
		fmt.Println()
		os.Exit(0)
	}()

	return shell.Run(ctx, os.Stdin)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
