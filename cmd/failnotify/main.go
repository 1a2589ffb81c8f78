// Command failnotify sends a single fail notification, e.g. from a cron job
// or deploy script:
//
//	failnotify -config failurous.yaml -title "Backup failed" \
//	    -field summary.host=db1 -field details.exit_code=2 -checksum-field summary.host
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/kart-io/failurous/client"
	"github.com/kart-io/failurous/config"
	"github.com/kart-io/failurous/monitoring"
	"github.com/kart-io/failurous/notification"
)

// fieldFlag collects repeated section.name=value flags in order.
type fieldFlag []fieldValue

type fieldValue struct {
	section, name, value string
}

func (f *fieldFlag) String() string {
	parts := make([]string, len(*f))
	for i, v := range *f {
		parts[i] = v.section + "." + v.name + "=" + v.value
	}
	return strings.Join(parts, ",")
}

func (f *fieldFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("field %q: expected section.name=value", s)
	}
	section, name, err := splitKey(key)
	if err != nil {
		return err
	}
	*f = append(*f, fieldValue{section: section, name: name, value: value})
	return nil
}

// keyFlag collects repeated section.name flags.
type keyFlag []string

func (k *keyFlag) String() string {
	return strings.Join(*k, ",")
}

func (k *keyFlag) Set(s string) error {
	if _, _, err := splitKey(s); err != nil {
		return err
	}
	*k = append(*k, s)
	return nil
}

func splitKey(key string) (string, string, error) {
	section, name, ok := strings.Cut(key, ".")
	if !ok || section == "" || name == "" {
		return "", "", fmt.Errorf("field %q: expected section.name", key)
	}
	return section, name, nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Printf("failnotify: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("failnotify", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "config file; defaults to ./failurous.yaml and FAILUROUS_* variables")
		title      = fs.String("title", "", "notification title")
		location   = fs.String("location", "", "location reported instead of the command line")
		dryRun     = fs.Bool("dry-run", false, "print the JSON document instead of sending it")
		fields     fieldFlag
		checksum   keyFlag
	)
	fs.Var(&fields, "field", "section.name=value, repeatable")
	fs.Var(&checksum, "checksum-field", "section.name of a field used when combining fails, repeatable")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *location == "" {
		*location = strings.TrimSpace("failnotify " + strings.Join(args, " "))
	}
	notif, err := buildNotification(*title, *location, fields, checksum)
	if err != nil {
		return err
	}

	if *dryRun {
		body, err := notif.Encode()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(body))
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	n, err := client.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = n.Close(ctx) }()

	if _, err := n.NotifyNotification(ctx, notif); err != nil {
		return err
	}
	if err := deliveryError(n.Stats()); err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout, "sent %q to %s\n", notif.Title(), cfg.BaseURL())
	return err
}

// deliveryError reports why the single notification sent by run did not reach
// the collector, or nil if it did.
func deliveryError(stats monitoring.Snapshot) error {
	switch {
	case stats.TotalFailed > 0:
		if msg, ok := stats.LastErrors[string(client.ShapeNotification)]; ok {
			return errors.New(msg)
		}
		return errors.New("notification was not delivered")
	case stats.Throttled > 0:
		return errors.New("notification was dropped by the rate limit")
	case stats.TotalSent == 0:
		return errors.New("notification was not sent")
	}
	return nil
}

func buildNotification(title, location string, fields fieldFlag, checksum keyFlag) (*notification.Notification, error) {
	notif := notification.NewAt(location, title)

	inChecksum := make(map[string]bool, len(checksum))
	for _, key := range checksum {
		inChecksum[key] = true
	}

	for _, f := range fields {
		key := f.section + "." + f.name
		if _, err := notif.AddField(f.section, f.name, f.value, notification.UseInChecksum(inChecksum[key])); err != nil {
			return nil, err
		}
		delete(inChecksum, key)
	}
	for key := range inChecksum {
		return nil, fmt.Errorf("checksum field %q was not given with -field", key)
	}

	return notif, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromFile(path)
}
