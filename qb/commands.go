package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/skillian/errors"
	"github.com/skillian/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/studiointeract/qbankapi2wrapper/fs"
	"github.com/studiointeract/qbankapi2wrapper/web"
)

// state is shared by all of the commands of one invocation.
type state struct {
	v *viper.Viper

	configFile string
	logLevel   string
	output     string
	noChaining bool

	Config
	*web.ClientPool
	out *printer
}

func newState() *state {
	return &state{v: viper.New()}
}

// init loads the configuration and sets up logging and output.  It runs
// before every command.
func (s *state) init(cmd *cobra.Command) error {
	if s.logLevel != "" {
		level, ok := logging.ParseLevel(s.logLevel)
		if !ok {
			return errors.Errorf("unknown log level %q", s.logLevel)
		}
		logger.SetLevel(level)
	}
	if s.noChaining {
		s.v.Set("chaining", false)
	}
	cfg, err := loadConfig(s.v, s.configFile)
	if err != nil {
		return err
	}
	s.Config = *cfg
	if s.out, err = newPrinter(cmd.OutOrStdout(), s.output); err != nil {
		return err
	}
	s.ClientPool = web.NewClientPool(
		web.WithServerChaining(s.Chaining),
		web.WithTransportOptions(web.WithTimeout(s.Timeout)))
	return nil
}

// withAPI runs fn with an API backed by a pooled client.
func (s *state) withAPI(fn func(api *fs.API) error) error {
	if err := s.Config.validate(); err != nil {
		return err
	}
	c, err := s.ClientPool.Client(s.Endpoint, s.Token)
	if err != nil {
		return err
	}
	defer s.ClientPool.Cache(c)
	err = fn(fs.NewAPI(c))
	logger.Debug1("%d request(s) sent", c.NumRequests())
	return err
}

func newRootCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qb",
		Short: "Manage QBank folders",
		Long: `qb lists, creates, edits and deletes folders in a QBank DAM and
manages which objects they contain.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&s.configFile, "config", "", "config file (default is $HOME/.qbank/config.yaml)")
	flags.String("endpoint", "", "QBank API endpoint URL")
	flags.String("token", "", "QBank API token")
	flags.StringVarP(&s.logLevel, "log-level", "l", "", "logging level (useful for debugging)")
	flags.StringVarP(&s.output, "output", "o", formatTable, "output format (table, json, yaml)")
	flags.BoolVar(&s.noChaining, "no-chaining", false, "send the calls of a batch one at a time")

	_ = s.v.BindPFlag("endpoint", flags.Lookup("endpoint"))
	_ = s.v.BindPFlag("token", flags.Lookup("token"))

	cmd.AddCommand(
		newListCmd(s),
		newGetCmd(s),
		newFindCmd(s),
		newMkdirCmd(s),
		newEditCmd(s),
		newRemoveCmd(s),
		newObjectCmd(s, "link", "Put an object into a folder", (*fs.API).AddObjectToFolder),
		newObjectCmd(s, "unlink", "Take an object out of a folder", (*fs.API).RemoveObjectFromFolder),
		newWhereCmd(s),
		newConfigCmd(s),
	)
	return cmd
}

func parseFolderID(v string) (fs.FolderID, error) {
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.ErrorfWithCause(
			err, "invalid folder ID %q: %v", v, err)
	}
	return fs.FolderID(id), nil
}

func parseObjectID(v string) (int, error) {
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.ErrorfWithCause(
			err, "invalid object ID %q: %v", v, err)
	}
	return id, nil
}

// parseProperties parses key=value pairs.  A later pair overrides an
// earlier one with the same key.
func parseProperties(pairs []string) (map[string]interface{}, error) {
	props := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, errors.Errorf(
				"property %q must have the form key=value", pair)
		}
		props[k] = v
	}
	return props, nil
}

func newListCmd(s *state) *cobra.Command {
	var (
		root  int
		depth int
		tree  bool
	)
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := fs.ListOptions{RootID: fs.FolderID(root), Depth: depth}
			return s.withAPI(func(api *fs.API) error {
				if tree {
					roots, err := api.FolderTree(cmd.Context(), opts)
					if err != nil {
						return err
					}
					return s.out.tree(roots)
				}
				folders, err := api.Folders(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return s.out.folders(folders)
			})
		},
	}
	cmd.Flags().IntVar(&root, "root", 0, "ID of the folder to list below")
	cmd.Flags().IntVar(&depth, "depth", 0, "levels of folders to list (default all)")
	cmd.Flags().BoolVar(&tree, "tree", false, "show folders as a tree with their properties")
	return cmd
}

func newGetCmd(s *state) *cobra.Command {
	var full, recursive bool
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFolderID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return s.withAPI(func(api *fs.API) error {
				switch {
				case full && recursive:
					f, err := api.Subtree(ctx, id)
					if err != nil {
						return err
					}
					return s.out.tree([]*fs.Folder{f})
				case full:
					f, err := api.FullFolder(ctx, id)
					if err != nil {
						return err
					}
					return s.out.tree([]*fs.Folder{f})
				case recursive:
					folders, err := api.FolderWithSubfolders(ctx, id)
					if err != nil {
						return err
					}
					return s.out.folders(folders)
				}
				f, err := api.Folder(ctx, id)
				if err != nil {
					return err
				}
				return s.out.folder(f)
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include the folder's properties")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "include the folders below it")
	return cmd
}

func newFindCmd(s *state) *cobra.Command {
	var root int
	cmd := &cobra.Command{
		Use:   "find PATH",
		Short: "Find a folder by its path of names, e.g. /Marketing/2024",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := FolderPathFromString(args[0])
			return s.withAPI(func(api *fs.API) error {
				roots, err := api.FolderTree(cmd.Context(), fs.ListOptions{
					RootID: fs.FolderID(root),
				})
				if err != nil {
					return err
				}
				f, err := p.Resolve(roots)
				if err != nil {
					return err
				}
				return s.out.folder(f.SimpleFolder)
			})
		},
	}
	cmd.Flags().IntVar(&root, "root", 0, "ID of the folder the path starts below")
	return cmd
}

func newMkdirCmd(s *state) *cobra.Command {
	var parent, folderType int
	cmd := &cobra.Command{
		Use:   "mkdir NAME",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withAPI(func(api *fs.API) error {
				f, err := api.CreateFolder(
					cmd.Context(), args[0],
					fs.FolderID(parent), folderType)
				if err != nil {
					return err
				}
				return s.out.folder(f)
			})
		},
	}
	cmd.Flags().IntVar(&parent, "parent", 0, "ID of the parent folder")
	cmd.Flags().IntVar(&folderType, "type", fs.DefaultFolderType, "folder type")
	return cmd
}

func newEditCmd(s *state) *cobra.Command {
	var props []string
	cmd := &cobra.Command{
		Use:   "edit ID NAME",
		Short: "Rename a folder and set its properties",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFolderID(args[0])
			if err != nil {
				return err
			}
			properties, err := parseProperties(props)
			if err != nil {
				return err
			}
			return s.withAPI(func(api *fs.API) error {
				f, err := api.EditFolder(cmd.Context(), id, args[1], properties)
				if err != nil {
					return err
				}
				return s.out.folder(f)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&props, "prop", "p", nil, "property to set as system_name=value (repeatable)")
	return cmd
}

func newRemoveCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFolderID(args[0])
			if err != nil {
				return err
			}
			return s.withAPI(func(api *fs.API) error {
				deleted, err := api.DeleteFolder(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !deleted {
					return errors.Errorf("folder %v was not deleted", id)
				}
				return s.out.message("deleted", id.String())
			})
		},
	}
}

type objectOp func(api *fs.API, ctx context.Context, folder fs.FolderID, objectID int) (web.Outcome, error)

func newObjectCmd(s *state, use, short string, op objectOp) *cobra.Command {
	return &cobra.Command{
		Use:   use + " FOLDER OBJECT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, err := parseFolderID(args[0])
			if err != nil {
				return err
			}
			object, err := parseObjectID(args[1])
			if err != nil {
				return err
			}
			return s.withAPI(func(api *fs.API) error {
				outcome, err := op(api, cmd.Context(), folder, object)
				if err != nil {
					return err
				}
				return s.out.message(use, outcome.String())
			})
		},
	}
}

func newWhereCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "where OBJECT",
		Short: "List the folders an object is in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			object, err := parseObjectID(args[0])
			if err != nil {
				return err
			}
			return s.withAPI(func(api *fs.API) error {
				folders, err := api.FoldersByObject(cmd.Context(), object)
				if err != nil {
					return err
				}
				return s.out.folders(folders)
			})
		},
	}
}

func newConfigCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := s.v.ConfigFileUsed()
			if file == "" {
				file = "(none)"
			}
			return s.out.settings([][2]string{
				{"Endpoint", s.Endpoint},
				{"Token", s.MaskedToken()},
				{"Chaining", strconv.FormatBool(s.Chaining)},
				{"Timeout", s.Timeout.String()},
				{"Config File", file},
			})
		},
	})
	return cmd
}
