// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag(value bool) cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: value}
}

func repertoireFlag(required bool) cli.Flag {
	return &cli.IntFlag{Name: "repertoire", Aliases: []string{"r"}, Usage: "Repertoire ID", Required: required}
}

func idArg() cli.Argument {
	return &cli.IntArg{Name: "id"}
}

// sortFlags select the order songs are rendered in.
func sortFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Usage: "Sort key (song_number, name, priority, ..., skill:<name>)", Value: "song_number"},
		&cli.BoolFlag{Name: "reverse", Usage: "Reverse the sort key"},
		&cli.StringFlag{Name: "then", Usage: "Secondary sort key used as tiebreak"},
	}
}

func songInputFlags(titleRequired bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title", Required: titleRequired},
		&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artist"},
		repertoireFlag(false),
		&cli.StringFlag{Name: "priority", Usage: "low, mid or high"},
		&cli.IntFlag{Name: "target", Usage: "Practice target"},
		&cli.IntFlag{Name: "number", Usage: "Song number"},
		&cli.StringFlag{Name: "release-date", Usage: "Release date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "notes", Usage: "Notes"},
		&cli.StringFlag{Name: "hints", Usage: "Performance hints"},
		&cli.IntSliceFlag{Name: "skill", Usage: "Skill ID to assign (repeatable)"},
	}
}

func repertoireInputFlags(nameRequired bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Repertoire name", Required: nameRequired},
		&cli.StringFlag{Name: "notes", Usage: "Notes"},
		&cli.StringFlag{Name: "mp3-folder", Usage: "Folder holding audio files"},
		&cli.StringFlag{Name: "sheet-folder", Usage: "Folder holding charts"},
		&cli.StringFlag{Name: "songlist-folder", Usage: "Folder holding song lists"},
		&cli.IntSliceFlag{Name: "skill", Usage: "Default skill ID (repeatable)"},
	}
}

// setupCommand handles setup operations for configuration, cache and session.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a starter config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to configuration file", Value: "config.toml"},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "cache",
				Usage: "Initialize the local cache and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "status", Usage: "Only show applied migrations"},
					&cli.BoolFlag{Name: "rollback", Usage: "Roll back the latest migration"},
				},
				Action: r.SetupCache,
			},
			{
				Name:  "session",
				Usage: "Store the session cookie from a browser request",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "curl", Usage: "cURL command from browser DevTools (Copy as cURL)"},
					&cli.StringFlag{Name: "curl-file", Usage: "Path to .sh file containing cURL command"},
					&cli.StringFlag{Name: "cookie", Usage: "Raw session cookie value"},
				},
				Action: r.SetupSession,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password and store the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", Sources: cli.EnvVars("REHEARSE_PASSWORD"), Required: true},
					&cli.BoolFlag{Name: "remember", Usage: "Keep the session after the browser closes", Value: true},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "End the session and remove the stored cookie",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in user",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// songsCommand handles song listing, row actions and reordering.
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"song", "s"},
		Usage:   "List and update songs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs in rendered order",
				Flags: append([]cli.Flag{
					repertoireFlag(false),
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Filter titles"},
					&cli.BoolFlag{Name: "offline", Usage: "Read the last cached list instead of the server"},
					jsonFlag(),
					prettyFlag(true),
				}, sortFlags()...),
				Action: r.SongsList,
			},
			{
				Name:   "add",
				Usage:  "Create a song",
				Flags:  songInputFlags(true),
				Action: r.SongsAdd,
			},
			{
				Name:      "edit",
				Usage:     "Update a song",
				Arguments: []cli.Argument{idArg()},
				Flags:     songInputFlags(false),
				Action:    r.SongsEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a song",
				Arguments: []cli.Argument{idArg()},
				Action:    r.SongsDelete,
			},
			{
				Name:      "practice",
				Usage:     "Record a practice session",
				Arguments: []cli.Argument{idArg()},
				Action:    r.SongsPractice,
			},
			{
				Name:      "priority",
				Usage:     "Cycle priority (mid → high → low)",
				Arguments: []cli.Argument{idArg()},
				Action:    r.SongsPriority,
			},
			{
				Name:      "difficulty",
				Usage:     "Cycle difficulty (normal → easy → hard)",
				Arguments: []cli.Argument{idArg()},
				Action:    r.SongsDifficulty,
			},
			{
				Name:      "target",
				Usage:     "Increase the practice target",
				Arguments: []cli.Argument{idArg()},
				Action:    r.SongsTarget,
			},
			{
				Name:      "archive",
				Usage:     "Archive a song",
				Arguments: []cli.Argument{idArg()},
				Action:    r.SongsArchive,
			},
			{
				Name:      "skill",
				Usage:     "Toggle mastery of a skill on a song",
				Arguments: []cli.Argument{idArg(), &cli.IntArg{Name: "skill-id"}},
				Action:    r.SongsSkill,
			},
			{
				Name:      "audio",
				Usage:     "Link an audio file to a song",
				Arguments: []cli.Argument{idArg(), &cli.StringArg{Name: "path"}},
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "unlink", Usage: "Remove the linked file"}},
				Action:    r.SongsAudio,
			},
			{
				Name:      "chart",
				Usage:     "Link a chart to a song",
				Arguments: []cli.Argument{idArg(), &cli.StringArg{Name: "path"}},
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "unlink", Usage: "Remove the linked file"}},
				Action:    r.SongsChart,
			},
			{
				Name:      "move",
				Usage:     "Move a song within its repertoire",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					repertoireFlag(true),
					&cli.IntFlag{Name: "by", Usage: "Positions to move (negative moves up)", Required: true},
				},
				Action: r.SongsMove,
			},
			{
				Name:   "save-order",
				Usage:  "Save a sorted view as the new song numbering",
				Flags:  append([]cli.Flag{repertoireFlag(true)}, sortFlags()...),
				Action: r.SongsSaveOrder,
			},
		},
	}
}

// repertoiresCommand handles repertoire management.
func repertoiresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "repertoires",
		Aliases: []string{"repertoire", "rep"},
		Usage:   "Manage repertoires",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List repertoires",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag(true)},
				Action: r.RepertoiresList,
			},
			{
				Name:   "create",
				Usage:  "Create a repertoire",
				Flags:  repertoireInputFlags(true),
				Action: r.RepertoiresCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a repertoire",
				Arguments: []cli.Argument{idArg()},
				Flags:     repertoireInputFlags(false),
				Action:    r.RepertoiresUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a repertoire",
				Arguments: []cli.Argument{idArg()},
				Action:    r.RepertoiresDelete,
			},
			{
				Name:      "reorder",
				Usage:     "Set the order of repertoires",
				Arguments: []cli.Argument{&cli.IntArgs{Name: "ids", Min: 1, Max: -1}},
				Action:    r.RepertoiresReorder,
			},
			{
				Name:      "sync",
				Usage:     "Sync songs with the repertoire folders",
				Arguments: []cli.Argument{idArg()},
				Action:    r.RepertoiresSync,
			},
			{
				Name:      "undo-sync",
				Usage:     "Undo the last sync",
				Arguments: []cli.Argument{idArg()},
				Action:    r.RepertoiresUndoSync,
			},
			{
				Name:      "archive",
				Usage:     "Archive a repertoire",
				Arguments: []cli.Argument{idArg()},
				Action:    r.RepertoiresArchive,
			},
			{
				Name:      "share",
				Usage:     "Copy a repertoire to another user",
				Arguments: []cli.Argument{idArg()},
				Flags:     []cli.Flag{&cli.IntFlag{Name: "user", Usage: "Target user ID", Required: true}},
				Action:    r.RepertoiresShare,
			},
			{
				Name:      "time",
				Usage:     "Show time practiced",
				Arguments: []cli.Argument{idArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.RepertoiresTime,
			},
			{
				Name:      "setlist",
				Usage:     "Download the setlist PDF",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max", Usage: "Only include songs numbered up to this value"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path"},
				},
				Action: r.RepertoiresSetlist,
			},
			{
				Name:      "add-skills",
				Usage:     "Assign skills to every song of a repertoire",
				Arguments: []cli.Argument{idArg()},
				Flags:     []cli.Flag{&cli.IntSliceFlag{Name: "skill", Usage: "Skill ID (repeatable)", Required: true}},
				Action:    r.RepertoiresAddSkills,
			},
		},
	}
}

// skillsCommand lists the skills catalogue.
func skillsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "skills",
		Usage: "Skills catalogue",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List skills",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SkillsList,
			},
		},
	}
}

// exportCommand writes repertoires to files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export repertoires to CSV, Markdown, text or JSON",
		Flags: append([]cli.Flag{
			&cli.IntSliceFlag{Name: "repertoire", Aliases: []string{"r"}, Usage: "Repertoire ID (repeatable, default all)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, markdown, text or json"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
			&cli.IntFlag{Name: "workers", Usage: "Concurrent workers"},
			&cli.FloatFlag{Name: "rate", Usage: "Backend requests per second"},
		}, sortFlags()...),
		Action: r.Export,
	}
}

// cacheCommand handles the local read-only cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Cache repertoires locally for offline reading",
		Commands: []*cli.Command{
			{
				Name:      "repertoire",
				Usage:     "Fetch a repertoire (or all songs) into the cache",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Action:    r.CacheRepertoire,
			},
			{
				Name:      "show",
				Usage:     "Show what is cached",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Action:    r.CacheShow,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON", Value: true},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body to send", Required: true},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Dump user, repertoires, songs and skills",
				Flags: []cli.Flag{
					prettyFlag(true),
					&cli.BoolFlag{Name: "save", Usage: "Save dump to api_dump.json"},
				},
				Action: r.APIDump,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive song list",
		Flags:   []cli.Flag{repertoireFlag(false)},
		Action:  r.TUI,
	}
}
