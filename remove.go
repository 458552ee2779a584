package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaos-io/solidbg/solidbg/rembg"
	"github.com/chaos-io/solidbg/util"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Make the solid background of one image transparent",
	RunE:  runRemove,
}

func init() {
	removeCmd.Flags().StringP("input", "i", "", "Input image: file path, http(s) URL or data URL")
	removeCmd.Flags().StringP("output", "o", "", "Output PNG path (defaults to <name>_nobg.png)")
	removeCmd.Flags().Bool("data-url", false, "Print the result as a PNG data URL instead of writing a file")
	addProcessFlags(removeCmd)
	_ = removeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(removeCmd)
}

func addProcessFlags(cmd *cobra.Command) {
	defaults := rembg.DefaultOptions()
	cmd.Flags().Int("workers", defaults.Workers, "Row bands masked in parallel")
	cmd.Flags().Int("max-size", 0, "Downscale so the longest side is at most this many pixels (0 keeps size)")
	cmd.Flags().Bool("trim", false, "Crop fully transparent borders after removal")
	cmd.Flags().Duration("fetch-timeout", rembg.DefaultFetchTimeout, "Timeout for downloading remote images")
}

func processOptions(cmd *cobra.Command) rembg.Options {
	workers, _ := cmd.Flags().GetInt("workers")
	maxSize, _ := cmd.Flags().GetInt("max-size")
	trim, _ := cmd.Flags().GetBool("trim")
	return rembg.Options{Workers: workers, MaxSize: maxSize, Trim: trim}
}

func runRemove(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	asDataURL, _ := cmd.Flags().GetBool("data-url")
	timeout, _ := cmd.Flags().GetDuration("fetch-timeout")

	ctx := cmd.Context()

	// 本地文件先解码，无法解码时直接报错
	if !isRemote(input) {
		src, err := util.OpenImage(input)
		if err != nil {
			return err
		}
		slog.Debug("input decoded", "path", input, "size", src.Bounds().Size())
	}

	img := rembg.NewImage("cli", input, true)
	img.Load(ctx, rembg.NewSourceLoader(nil, timeout))
	rembg.NewOrchestrator(processOptions(cmd)).Process(ctx, img)

	if err := img.LoadErr(); err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	if !img.Processed() {
		// 原图保留，不算失败
		fmt.Fprintf(os.Stderr, "background of %s left unchanged (run with -v for details)\n", input)
		return nil
	}

	content, _ := img.Content()
	bg, _ := img.Background()

	if asDataURL {
		fmt.Println(util.EncodeDataURL(util.MimePNG, content))
		return nil
	}

	if output == "" {
		output = defaultOutputPath(input)
	}
	if err := os.WriteFile(output, content, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	fmt.Printf("Removed background %s from %s -> %s (%d bytes)\n", bg.Hex(), input, output, len(content))
	return nil
}

func defaultOutputPath(input string) string {
	if isRemote(input) {
		base := "output"
		if !util.IsDataURL(input) {
			if b := filepath.Base(strings.SplitN(input, "?", 2)[0]); b != "" && b != "." && b != "/" {
				base = strings.TrimSuffix(b, filepath.Ext(b))
			}
		}
		return base + "_nobg.png"
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+"_nobg.png")
}

// isRemote http(s) 地址和 data url 都不是本地文件
func isRemote(input string) bool {
	return util.IsDataURL(input) || strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}
