package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/plan-systems/klog"

	"github.com/structura-systems/gocanon"
	"github.com/structura-systems/gocanon/libcanon"
	"github.com/structura-systems/gocanon/libcanon/cache"
	"github.com/structura-systems/gocanon/libcanon/graph"
)

var cli struct {
	Iso      bool     `help:"Compare two graph expressions for isomorphism."`
	Parallel bool     `help:"Explore independent top-level branches concurrently."`
	MaxSteps int64    `help:"Search node budget (0 = unbounded)."`
	Cache    string   `help:"Path to a persistent normalization cache db."`
	Exprs    []string `arg:"" name:"expr" help:"Graph expression(s), e.g. \"1-2-3,3-1\"."`
}

func main() {
	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	ctx := kong.Parse(&cli)
	ctx.FatalIfErrorf(run())

	klog.Flush()
}

func run() error {
	opts := gocanon.Opts{
		MaxSteps: cli.MaxSteps,
		Parallel: cli.Parallel,
	}

	var store cache.Store
	if cli.Cache != "" {
		bs, err := cache.OpenBadgerStore(cache.Opts{DbPathName: cli.Cache})
		if err != nil {
			return err
		}
		defer bs.Close()
		store = bs
	}

	results := make([]gocanon.Result, 0, len(cli.Exprs))
	for _, expr := range cli.Exprs {
		X, err := graph.FromString(expr)
		if err != nil {
			return err
		}

		var res gocanon.Result
		if store != nil {
			res, err = cache.CachedCanonicalize(X, store, opts)
		} else {
			res, err = libcanon.Canonicalize(X, opts)
		}
		X.Reclaim()
		if err != nil {
			return err
		}
		results = append(results, res)

		fmt.Fprintf(os.Stdout, "%q\n   cert: %s\n   perm: %v\n   search: %+v\n",
			expr, res.Cert, res.Perm, res.Stats)
	}

	if cli.Iso {
		if len(results) != 2 {
			return fmt.Errorf("-iso requires exactly 2 expressions, got %d", len(results))
		}
		if results[0].Cert.IsEqual(results[1].Cert) {
			fmt.Println("isomorphic")
		} else {
			fmt.Println("NOT isomorphic")
		}
	}
	return nil
}
