package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/caw/caw"
	"github.com/tailored-agentic-units/caw/faz"
)

var fazAddr string

func newFazClient() *faz.Client {
	return faz.NewClient(nil, fazAddr)
}

func createClientCmds() []*cobra.Command {
	cmds := []*cobra.Command{
		createHookCmd(),
		createUnhookCmd(),
		createHookAllCmd(),
		createUnhookAllCmd(),
		createRegisterUserCmd(),
		createPostCmd(),
		createFollowCmd(),
		createReadCmd(),
		createProfileCmd(),
		createStreamCmd(),
	}

	defaultAddr := faz.DefaultAddress
	if env := os.Getenv("CAW_FAZ_ADDRESS"); env != "" {
		defaultAddr = env
	}
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&fazAddr, "faz", defaultAddr, "faz server address")
	}
	return cmds
}

func createHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hook <event> <function>",
		Short: "Hook an event type to a handler",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			et, err := faz.ParseEventType(args[0])
			if err != nil {
				return err
			}
			if err := newFazClient().Hook(cmd.Context(), et, args[1]); err != nil {
				return err
			}
			color.Green("hooked %s -> %s", et, args[1])
			return nil
		},
	}
}

func createUnhookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unhook <event>",
		Short: "Remove every hook of an event type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			et, err := faz.ParseEventType(args[0])
			if err != nil {
				return err
			}
			if err := newFazClient().Unhook(cmd.Context(), et); err != nil {
				return err
			}
			color.Green("unhooked %s", et)
			return nil
		},
	}
}

func createHookAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hookall",
		Short: "Hook every event type to its default handler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newFazClient()
			for et := faz.EventRegisterUser; et <= faz.EventStream; et++ {
				name := faz.DefaultHooks()[et]
				if err := client.Hook(cmd.Context(), et, name); err != nil {
					return err
				}
				color.Green("hooked %s -> %s", et, name)
			}
			return nil
		},
	}
}

func createUnhookAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unhookall",
		Short: "Unhook every event type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newFazClient()
			for et := faz.EventRegisterUser; et <= faz.EventStream; et++ {
				if err := client.Unhook(cmd.Context(), et); err != nil {
					return err
				}
			}
			color.Green("unhooked all events")
			return nil
		},
	}
}

func createRegisterUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registeruser <username>",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := newFazClient().Event(cmd.Context(), faz.EventRegisterUser, caw.RegisterUserRequest{Username: args[0]}); err != nil {
				return err
			}
			color.Green("registered %s", args[0])
			return nil
		},
	}
}

func createPostCmd() *cobra.Command {
	var user, text, reply string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a caw, optionally as a reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newFazClient().Event(cmd.Context(), faz.EventCaw, caw.CawRequest{
				Username: user,
				Text:     text,
				ParentID: reply,
			})
			if err != nil {
				return err
			}
			post := r.(*caw.CawReply).Caw
			color.Green("posted caw %s", post.ID)
			fmt.Println(formatPost(post))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Author username")
	cmd.Flags().StringVar(&text, "text", "", "Caw text")
	cmd.Flags().StringVar(&reply, "reply", "", "Id of the caw being replied to")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("text")

	return cmd
}

func createFollowCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "follow <username>",
		Short: "Follow another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := newFazClient().Event(cmd.Context(), faz.EventFollow, caw.FollowRequest{Username: user, ToFollow: args[0]}); err != nil {
				return err
			}
			color.Green("%s now follows %s", user, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Follower username")
	cmd.MarkFlagRequired("user")

	return cmd
}

func createReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <caw-id>",
		Short: "Print a caw and all of its replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newFazClient().Event(cmd.Context(), faz.EventRead, caw.ReadRequest{CawID: args[0]})
			if err != nil {
				return err
			}
			fmt.Print(renderThread(r.(*caw.ReadReply).Caws))
			return nil
		},
	}
}

func createProfileCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show a user's followers and following",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newFazClient().Event(cmd.Context(), faz.EventProfile, caw.ProfileRequest{Username: user})
			if err != nil {
				return err
			}
			p := r.(*caw.ProfileReply)
			color.Cyan("%s", user)
			fmt.Printf("  followers (%d): %s\n", len(p.Followers), strings.Join(p.Followers, ", "))
			fmt.Printf("  following (%d): %s\n", len(p.Following), strings.Join(p.Following, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username")
	cmd.MarkFlagRequired("user")

	return cmd
}

func createStreamCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "stream <hashtag>",
		Short: "Print new caws tagged with a hashtag until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			hashtag := strings.TrimPrefix(args[0], "#")
			color.Yellow("streaming #%s as %s (Ctrl+C to stop)", hashtag, user)

			err := newFazClient().Stream(ctx, hashtag, user, func(post caw.Post) error {
				fmt.Println(formatPost(post))
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Subscribing username")
	cmd.MarkFlagRequired("user")

	return cmd
}
