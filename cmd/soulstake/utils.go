// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/soulstake/soulstake/authority"
	"github.com/soulstake/soulstake/eventdb"
	"github.com/soulstake/soulstake/log"
	"github.com/soulstake/soulstake/lvldb"
	"github.com/soulstake/soulstake/soul"
	"github.com/soulstake/soulstake/staking"
)

func fatal(args ...any) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fatal(fmt.Sprintf(format, args...))
}

func initLogger(ctx *cli.Context) {
	var level slog.Level
	switch ctx.Uint64(verbosityFlag.Name) {
	case 0:
		level = log.LevelError
	case 1:
		level = log.LevelWarn
	case 2:
		level = log.LevelInfo
	case 3:
		level = log.LevelDebug
	default:
		level = log.LevelTrace
	}

	if ctx.Bool(jsonLogsFlag.Name) {
		log.Init(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return
	}
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.Init(log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor))
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "org.soulstake")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "org.soulstake")
	default:
		return filepath.Join(home, ".org.soulstake")
	}
}

func makeInstanceDir(ctx *cli.Context, collection soul.Address) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatalf("unable to infer default data dir, use -%s to specify one", dataDirFlag.Name)
	}

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", collection.Bytes()[16:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		fatalf("create instance dir at '%v': %v", instanceDir, err)
	}
	return instanceDir
}

func openMainDB(instanceDir string) *lvldb.LevelDB {
	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{})
	if err != nil {
		fatalf("open main database at '%v': %v", dir, err)
	}
	return db
}

func openEventDB(instanceDir string) *eventdb.EventDB {
	path := filepath.Join(instanceDir, "event.db")
	db, err := eventdb.New(path)
	if err != nil {
		fatalf("open event database at '%v': %v", path, err)
	}
	return db
}

func loadParams(ctx *cli.Context) *staking.Params {
	path := ctx.String(paramsFlag.Name)
	if path == "" {
		return staking.DefaultParams()
	}
	params, err := staking.LoadParams(path)
	if err != nil {
		fatalf("load params from '%v': %v", path, err)
	}
	return params
}

func selectCollection(ctx *cli.Context) soul.Address {
	if v := ctx.String(collectionFlag.Name); v != "" {
		collection, err := soul.ParseAddress(v)
		if err != nil {
			fatalf("parse -%s: %v", collectionFlag.Name, err)
		}
		return collection
	}
	// stable default so restarts hit the same instance dir
	return soul.BytesToAddress(soul.Blake2b([]byte("soulstake-default-collection")).Bytes()[12:])
}

// seedAuthority installs the owner and the initial resolver/issuer grants.
// Re-runs are harmless: an existing owner is kept and duplicate grants are
// skipped.
func seedAuthority(ctx *cli.Context, auth *authority.Authority) error {
	owner, err := auth.Owner()
	if err != nil {
		return err
	}
	if owner.IsZero() {
		v := ctx.String(ownerFlag.Name)
		if v == "" {
			return errors.Errorf("no owner recorded, use -%s on first run", ownerFlag.Name)
		}
		if owner, err = soul.ParseAddress(v); err != nil {
			return errors.WithMessage(err, ownerFlag.Name)
		}
		if err := auth.Init(owner); err != nil {
			return err
		}
	}

	now := uint64(time.Now().Unix())
	if v := ctx.String(resolverFlag.Name); v != "" {
		resolver, err := soul.ParseAddress(v)
		if err != nil {
			return errors.WithMessage(err, resolverFlag.Name)
		}
		if err := grantOnce(auth, owner, authority.RoleResolver, resolver, "genesis", now); err != nil {
			return err
		}
	}
	for _, item := range ctx.StringSlice(issuerFlag.Name) {
		addr, name := item, "genesis"
		if i := strings.IndexByte(item, ':'); i >= 0 {
			addr, name = item[:i], item[i+1:]
		}
		issuer, err := soul.ParseAddress(addr)
		if err != nil {
			return errors.WithMessage(err, issuerFlag.Name)
		}
		if err := grantOnce(auth, owner, authority.RoleIssuer, issuer, name, now); err != nil {
			return err
		}
	}
	return nil
}

func grantOnce(auth *authority.Authority, owner soul.Address, role authority.Role, addr soul.Address, name string, now uint64) error {
	ok, err := auth.IsAuthorized(role, addr)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return auth.Grant(owner, role, addr, name, now)
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (*http.Server, string) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatalf("listen API addr '%v': %v", addr, err)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			logger.Error("API server stopped", "err", err)
		}
	}()
	return srv, "http://" + listener.Addr().String() + "/"
}

func printStartupMessage(instanceDir, apiURL string, params *staking.Params, collection soul.Address) {
	fmt.Printf(`Starting %v
    Instance dir  [ %v ]
    Collection    [ %v ]
    Cooldown      [ %vs ]
    Base delta    [ %v ]
    Slash         [ %v bps ]
    API portal    [ %v ]
`,
		fullVersion(),
		instanceDir,
		collection,
		params.MinLockDuration,
		params.BaseDelta,
		params.SlashBps,
		apiURL)
}
