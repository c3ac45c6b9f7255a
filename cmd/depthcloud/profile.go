package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/banshee-data/depthcloud/internal/config"
	"github.com/banshee-data/depthcloud/internal/profile"
)

const profileUsage = `usage: depthcloud profile <list|create NAME|rename ID NAME|delete ID|select ID|set-map ID FILE|set-meshes ID FILE...|verify ID|default>`

func runProfile(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("profile", pflag.ContinueOnError)
	dir := fs.String("dir", cfg.GetProfilesDir(), "profiles directory")
	dbPath := fs.String("db", "", "profiles database (default: profiles.db in --dir)")
	if help, err := parseCommandFlags(fs, args); help || err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New(profileUsage)
	}
	// An explicit --dir keeps its database alongside unless --db says otherwise.
	if *dbPath == "" && !fs.Changed("dir") {
		*dbPath = cfg.GetProfilesDB()
	}

	ctx := context.Background()
	repo, err := profile.Open(ctx, profile.Options{Dir: *dir, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer repo.Close()

	sub, subArgs := rest[0], rest[1:]
	switch sub {
	case "list":
		return listProfiles(repo, stdout)
	case "verify":
		id, err := profileID(subArgs, 1)
		if err != nil {
			return err
		}
		if !repo.Verify(id) {
			return fmt.Errorf("profile %d is incomplete or missing under %s", id, repo.PathFor(id))
		}
		fmt.Fprintf(stdout, "profile %d ok\n", id)
		return nil
	}

	var changed *profile.Profile
	switch sub {
	case "create":
		if len(subArgs) != 1 {
			return errors.New(profileUsage)
		}
		changed, err = repo.Create(subArgs[0])
	case "default":
		p, ok := repo.GetDefault()
		if ok {
			fmt.Fprintf(stdout, "%d\t%s\n", p.ID, p.Name)
			return nil
		}
		changed, err = repo.CreateDefault()
	case "rename":
		var id int
		if id, err = profileID(subArgs, 2); err == nil {
			err = repo.Rename(id, subArgs[1])
		}
	case "delete":
		var id int
		if id, err = profileID(subArgs, 1); err == nil {
			err = repo.Delete(id)
		}
	case "select":
		var id int
		if id, err = profileID(subArgs, 1); err == nil {
			err = repo.Select(id)
		}
	case "set-map":
		var id int
		if id, err = profileID(subArgs, 2); err == nil {
			err = repo.SetMapName(id, subArgs[1])
		}
	case "set-meshes":
		var id int
		if len(subArgs) < 1 {
			return errors.New(profileUsage)
		}
		if id, err = profileID(subArgs[:1], 1); err == nil {
			err = repo.SetMeshes(id, subArgs[1:])
		}
	default:
		return fmt.Errorf("unknown profile command %q\n%s", sub, profileUsage)
	}
	if err != nil {
		return err
	}

	if err := repo.Save(ctx); err != nil {
		return err
	}
	if changed != nil {
		fmt.Fprintf(stdout, "%d\t%s\n", changed.ID, changed.Name)
	}
	return nil
}

func profileID(args []string, want int) (int, error) {
	if len(args) != want {
		return 0, errors.New(profileUsage)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid profile id %q", args[0])
	}
	return id, nil
}

func listProfiles(repo profile.Repository, stdout io.Writer) error {
	selected := repo.Selected()
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tMAP\tMESHES\tLAST USED")
	for _, p := range repo.GetAll() {
		mark := ""
		if selected != nil && selected.ID == p.ID {
			mark = "*"
		}
		name := p.Name
		if p.IsDefault {
			name += " (default)"
		}
		lastUsed := "-"
		if !p.LastUsed.IsZero() {
			lastUsed = p.LastUsed.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", mark, p.ID, name, p.MapName, strings.Join(p.Meshes, ","), lastUsed)
	}
	return tw.Flush()
}
