package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/chunkhub/internal/api"
	"github.com/and161185/chunkhub/internal/client"
)

func newRegisterCmd(a *app) *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.password(password)
			if err != nil {
				return err
			}
			c, err := a.client(false)
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			u, err := c.Register(ctx, username, email, pw)
			if err != nil {
				return err
			}
			if a.asJSON {
				a.printJSON(u)
				return nil
			}
			fmt.Fprintf(a.out, "registered %s (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.password(password)
			if err != nil {
				return err
			}
			c, err := a.client(false)
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			tok, err := c.Login(ctx, username, pw)
			if err != nil {
				return err
			}
			if err := saveToken(a.server, tok.AccessToken, tokenExpiry(tok.AccessToken, tok.ExpiresAt)); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "ok")
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			u, err := c.Me(ctx)
			if err != nil {
				return err
			}
			if a.asJSON {
				a.printJSON(u)
				return nil
			}
			fmt.Fprintf(a.out, "%s <%s>\n", u.Username, u.Email)
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var p client.SearchParams
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search published modpacks",
		Example: `  chunk search "all the mods"
  chunk search tech --loader forge --mc-version 1.20.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(false)
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			ms, err := c.Search(ctx, args[0], p)
			if err != nil {
				return err
			}
			if a.asJSON {
				a.printJSON(ms)
				return nil
			}
			printModpacks(a.out, ms)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.MCVersion, "mc-version", "", "Minecraft version")
	f.StringVar(&p.Loader, "loader", "", "mod loader")
	f.IntVar(&p.Skip, "skip", 0, "results to skip")
	f.IntVar(&p.Limit, "limit", 0, "maximum results (server default when 0)")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <slug>",
		Short: "Show a project with its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// a saved token lets authors see their unpublished projects
			c, err := a.client(true)
			if err != nil {
				if c, err = a.client(false); err != nil {
					return err
				}
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			d, err := c.Project(ctx, args[0])
			if err != nil {
				return err
			}
			if a.asJSON {
				a.printJSON(d)
				return nil
			}
			printProject(a.out, d)
			return nil
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		in                  api.ModpackCreate
		desc, loaderVersion string
		ram                 int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an unpublished modpack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if desc != "" {
				in.Description = &desc
			}
			if loaderVersion != "" {
				in.LoaderVersion = &loaderVersion
			}
			if cmd.Flags().Changed("ram") {
				in.RecommendedRAMGB = &ram
			}
			c, err := a.client(true)
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			m, err := c.CreateModpack(ctx, in)
			if err != nil {
				return err
			}
			if a.asJSON {
				a.printJSON(m)
				return nil
			}
			fmt.Fprintf(a.out, "created %s (unpublished)\n", m.Slug)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&in.MCVersion, "mc-version", "", "Minecraft version")
	f.StringVar(&in.Loader, "loader", "", "mod loader")
	f.StringVar(&loaderVersion, "loader-version", "", "mod loader version")
	f.StringVar(&desc, "description", "", "description")
	f.IntVar(&ram, "ram", 4, "recommended RAM in GB")
	for _, name := range []string{"name", "mc-version", "loader"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newPublishCmd(a *app) *cobra.Command {
	var unpublish bool
	cmd := &cobra.Command{
		Use:   "publish <slug>",
		Short: "Publish (or with --unpublish, hide) a modpack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			m, err := c.UpdateModpack(ctx, args[0], map[string]any{"is_published": !unpublish})
			if err != nil {
				return err
			}
			state := "published"
			if !m.IsPublished {
				state = "unpublished"
			}
			fmt.Fprintf(a.out, "%s is %s\n", m.Slug, state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unpublish, "unpublish", false, "hide the modpack again")
	return cmd
}

func newReleaseCmd(a *app) *cobra.Command {
	var (
		in                           api.VersionCreate
		loaderVersion, changelogFile string
		beta                         bool
	)
	cmd := &cobra.Command{
		Use:   "release <slug> <version>",
		Short: "Add a version to a modpack",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Version = args[1]
			if loaderVersion != "" {
				in.LoaderVersion = &loaderVersion
			}
			if changelogFile != "" {
				b, err := a.readAll(changelogFile)
				if err != nil {
					return err
				}
				s := string(b)
				in.Changelog = &s
			}
			stable := !beta
			in.IsStable = &stable

			c, err := a.client(true)
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			v, err := c.CreateVersion(ctx, args[0], in)
			if err != nil {
				return err
			}
			if a.asJSON {
				a.printJSON(v)
				return nil
			}
			fmt.Fprintf(a.out, "released %s %s\n", args[0], v.Version)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.MCVersion, "mc-version", "", "Minecraft version")
	f.StringVar(&in.Loader, "loader", "", "mod loader")
	f.StringVar(&loaderVersion, "loader-version", "", "mod loader version")
	f.StringVar(&changelogFile, "changelog", "", "changelog file ('-' = stdin)")
	f.BoolVar(&beta, "beta", false, "mark the version as not stable")
	_ = cmd.MarkFlagRequired("mc-version")
	_ = cmd.MarkFlagRequired("loader")
	return cmd
}

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <slug> <version> <file>",
		Short: "Upload a .zip or .mrpack artifact for a version",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			res, err := c.Upload(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if a.asJSON {
				a.printJSON(res)
				return nil
			}
			fmt.Fprintf(a.out, "%s: %s (%s)\nsha256 %s\n", res.Message, res.DownloadURL, humanSize(res.Size), res.Hash)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	var fileOnly string
	cmd := &cobra.Command{
		Use:   "rm <slug>",
		Short: "Delete a modpack, or with --file only a version's artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			if fileOnly != "" {
				err = c.DeleteUpload(ctx, args[0], fileOnly)
			} else {
				err = c.DeleteModpack(ctx, args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "deleted")
			return nil
		},
	}
	cmd.Flags().StringVar(&fileOnly, "file", "", "version whose artifact to delete")
	return cmd
}

