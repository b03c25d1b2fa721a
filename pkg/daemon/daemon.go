// Package daemon serves the sdssdli command tree over HTTP. A GET on a
// command endpoint prints its help text; a POST executes the command with
// one argument per body line.
package daemon

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunServer builds one endpoint per runnable command under rootCmd and
// blocks serving them on the configured daemon.endpoint address.
func RunServer(rootCmd *cobra.Command) error {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Timeout(60*time.Second),
	)

	mountCommand(router, "", rootCmd)

	err := http.ListenAndServe(viper.GetString("daemon.endpoint"), router)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// mountCommand adds the endpoints for one command and recurses into its
// subcommands.
func mountCommand(router *chi.Mux, endpoint string, cmd *cobra.Command) {
	endpoint = endpoint + "/" + cmd.Name()
	router.Get(endpoint, helpHandler(cmd))
	router.Post(endpoint, commandHandler(cmd))
	for _, childCmd := range cmd.Commands() {
		if childCmd.Runnable() || childCmd.HasSubCommands() {
			mountCommand(router, endpoint, childCmd)
		}
	}
}

func helpHandler(cmd *cobra.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd.SetOut(w)
		_ = cmd.Help()
	}
}

func commandHandler(cmd *cobra.Command) http.HandlerFunc {
	// Detach the command from its parent so Execute() doesn't traverse
	// back up the command tree.
	if parent := cmd.Parent(); parent != nil {
		parent.RemoveCommand(cmd)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		cmd.SetOut(w)

		body, err := io.ReadAll(r.Body)
		var args []string
		if err == nil && len(body) > 0 {
			args = strings.Split(strings.TrimRight(string(body), "\n"), "\n")
		}
		cmd.SetArgs(args)

		if err := cmd.ExecuteContext(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
