package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"secure-messenger/services"

	"github.com/gookit/color"
)

type lifecycle interface {
	Resume(ctx context.Context)
	Pause()
}

// client turns the lines typed by the user into session, identity and send operations.
type client struct {
	out     io.Writer
	auth    services.IAuthService
	chat    services.IChatService
	session lifecycle
	open    func(path string) (io.ReadCloser, error)
}

func newClient(out io.Writer, auth services.IAuthService, chat services.IChatService, session lifecycle) *client {
	return &client{
		out:     out,
		auth:    auth,
		chat:    chat,
		session: session,
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

func (c *client) help() {
	c.info("Commands: /signup <email> <password> <name>, /signin <email> <password>, /signout, " +
		"/photo <path>, /pause, /resume, /quit. Anything else is sent as text.")
}

// handle reports true when the user asked to quit.
func (c *client) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		if !c.chat.CanSend(line) {
			return false
		}
		if _, err := c.chat.SendText(ctx, line); err != nil {
			c.fail(err)
		}
		return false
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "/quit":
		return true
	case "/signup":
		if len(args) < 3 {
			c.info("usage: /signup <email> <password> <name>")
			return false
		}
		identity, err := c.auth.Register(args[0], args[1], strings.Join(args[2:], " "))
		if err != nil {
			c.fail(err)
			return false
		}
		c.info(fmt.Sprintf("Welcome %s", identity.DisplayName))
	case "/signin":
		if len(args) != 2 {
			c.info("usage: /signin <email> <password>")
			return false
		}
		identity, err := c.auth.Login(args[0], args[1])
		if err != nil {
			c.fail(err)
			return false
		}
		c.info(fmt.Sprintf("Signed in as %s", identity.DisplayName))
	case "/signout":
		c.auth.Logout()
		c.info("Signed out")
	case "/photo":
		if len(args) != 1 {
			c.info("usage: /photo <path>")
			return false
		}
		c.sendPhoto(ctx, args[0])
	case "/pause":
		c.session.Pause()
		c.info("Paused")
	case "/resume":
		c.session.Resume(ctx)
		c.info("Resumed")
	default:
		c.info(fmt.Sprintf("unknown command %s", cmd))
		c.help()
	}
	return false
}

func (c *client) sendPhoto(ctx context.Context, path string) {
	f, err := c.open(path)
	if err != nil {
		c.fail(err)
		return
	}
	defer f.Close()
	if _, err = c.chat.SendPhoto(ctx, path, f); err != nil {
		c.fail(err)
	}
}

func (c *client) info(msg string) {
	_, _ = fmt.Fprintln(c.out, color.FgGreen.Render(msg))
}

func (c *client) fail(err error) {
	_, _ = fmt.Fprintln(c.out, color.FgRed.Render("error: "+err.Error()))
}
