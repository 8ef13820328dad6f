package main

import (
	"fmt"
	"io"

	"github.com/onkernel/appliancectl/lib/lock"
	"github.com/onkernel/appliancectl/lib/logger"
	"github.com/onkernel/appliancectl/lib/providers"
	"github.com/onkernel/appliancectl/lib/switcher"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Power the appliance on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *application) error {
			return app.Driver.Start(app.Ctx)
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Power the appliance off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *application) error {
			return app.Driver.Stop(app.Ctx)
		})
	},
}

var offlineCmd = &cobra.Command{
	Use:   "offline",
	Short: "Isolate the appliance and route its domain to it through host DNS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSwitcher(func(app *application, s *switcher.Switcher) error {
			return s.GoOffline(app.Ctx)
		})
	},
}

var onlineCmd = &cobra.Command{
	Use:   "online",
	Short: "Restore the appliance's normal network mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSwitcher(func(app *application, s *switcher.Switcher) error {
			return s.GoOnline(app.Ctx)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the appliance's network mode, domain and address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSwitcher(func(app *application, s *switcher.Switcher) error {
			st, err := s.Status(app.Ctx)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		})
	},
}

// withApp builds the application and holds the per-appliance lock while fn
// runs. Even status takes it, since building a switcher may start the appliance.
func withApp(fn func(app *application) error) error {
	app, cleanup, err := initializeApp(providers.AssumeYes(assumeYes))
	if err != nil {
		return err
	}
	defer cleanup()

	path, err := app.Paths.Lock(app.Driver.LockKey())
	if err != nil {
		return err
	}
	l, err := lock.Acquire(path)
	if err != nil {
		return err
	}
	defer l.Release()

	logger.FromContext(app.Ctx).DebugContext(app.Ctx, "appliance", "vmx", app.Driver.VMX(), "settings", app.Settings.Path())
	return fn(app)
}

// withSwitcher is withApp for commands that need a running, ready appliance.
func withSwitcher(fn func(app *application, s *switcher.Switcher) error) error {
	return withApp(func(app *application) error {
		s, err := switcher.New(app.Ctx, app.SwitcherOptions)
		if err != nil {
			return err
		}
		return fn(app, s)
	})
}

func printStatus(w io.Writer, st *switcher.Status) {
	fmt.Fprintf(w, "appliance: %s\n", st.VMX)
	fmt.Fprintf(w, "mode:      %s\n", st.Mode)
	fmt.Fprintf(w, "domain:    %s\n", st.Domain)
	fmt.Fprintf(w, "ip:        %s\n", st.IP)
	if st.DNSAnswering != nil {
		answer := "not answering"
		if *st.DNSAnswering {
			answer = "answering"
		}
		fmt.Fprintf(w, "dns:       %s\n", answer)
	}
}
