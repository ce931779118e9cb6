// Command createproject adds a project that files can be uploaded to.
// Projects have no HTTP surface; they are seeded from here.
//
//	createproject -name "Obra Nueva 2024"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sakif/projectdesk/internal/config"
	"github.com/sakif/projectdesk/internal/model"
	"github.com/sakif/projectdesk/internal/server"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "createproject:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("createproject", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the YAML config file")
	name := fs.String("name", "", "project name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*name) == "" {
		return errors.New("-name is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	db, err := server.OpenDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	project := &model.Project{ProjectName: strings.TrimSpace(*name)}
	if err := db.CreateProject(ctx, project); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "created project %d (%s)\n", project.ID, project.ProjectName)
	return nil
}
