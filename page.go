package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chaos-io/solidbg/solidbg/rembg"
	"github.com/chaos-io/solidbg/util/crawler"
	nhttp "github.com/chaos-io/solidbg/util/http"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Process every <img data-remove-solid-bg> on a web page",
	RunE:  runPage,
}

func init() {
	pageCmd.Flags().StringP("url", "u", "", "Page URL")
	pageCmd.Flags().StringP("output", "o", "./output", "Directory for processed PNGs")
	addProcessFlags(pageCmd)
	_ = pageCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(pageCmd)
}

func runPage(cmd *cobra.Command, args []string) error {
	pageURL, _ := cmd.Flags().GetString("url")
	outDir, _ := cmd.Flags().GetString("output")
	timeout, _ := cmd.Flags().GetDuration("fetch-timeout")

	ctx := cmd.Context()

	base, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("parse page url: %w", err)
	}
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	cli := nhttp.NewHTTPClient()
	body, err := crawler.Fetch(ctx, cli, pageURL)
	if err != nil {
		return err
	}

	refs := crawler.OptedIn(crawler.FindImages(body, base))
	if len(refs) == 0 {
		fmt.Printf("No images marked %s on %s\n", crawler.OptInAttr, pageURL)
		return nil
	}

	loader := rembg.NewSourceLoader(cli, timeout)
	orch := rembg.NewOrchestrator(processOptions(cmd))

	images := make([]*rembg.Image, 0, len(refs))
	for _, ref := range refs {
		img := rembg.NewImage(ksuid.New().String(), ref.Src, ref.OptIn)
		img.Load(ctx, loader)
		images = append(images, img)
	}

	done := 0
	for _, img := range images {
		orch.Process(ctx, img)
		if !img.Processed() {
			slog.Info("left unchanged", "src", img.Source, "load_err", img.LoadErr())
			continue
		}

		content, _ := img.Content()
		out := filepath.Join(outDir, outputName(img))
		if err := os.WriteFile(out, content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		done++
		fmt.Println("Processed", img.Source, "->", out)
	}

	fmt.Printf("Processed %d/%d images from %s\n", done, len(images), pageURL)
	return nil
}

func outputName(img *rembg.Image) string {
	name := img.ID
	if u, err := url.Parse(img.Source); err == nil && u.Scheme != "data" {
		if b := path.Base(u.Path); b != "" && b != "." && b != "/" {
			name = strings.TrimSuffix(b, path.Ext(b)) + "_" + img.ID[:8]
		}
	}
	return name + "_nobg.png"
}
