package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/satyamitra/internal/logging"
	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/worker"
)

var (
	verifyType    string
	verifyRole    string
	verifyImage   string
	verifyUser    string
	verifyTimeout time.Duration
	verifyReport  bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [claim|url]",
	Short: "Verify a single claim, URL or image",
	Long: `Verify runs one claim through the verification workflow and prints
each step as a JSON line, ending with the result or error line.

The input type is inferred from the argument (http/https URLs are "url")
unless --type is given. An image is verified with --image.

Example:
  satyamitra verify "The moon landing was faked"
  satyamitra verify https://example.com/story --role admin
  satyamitra verify --image photo.jpg
  satyamitra verify "Water boils at 50C" --report`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyType, "type", "", "input type: text, url, image (default: inferred)")
	verifyCmd.Flags().StringVar(&verifyRole, "role", "standard", "requester role: standard, admin")
	verifyCmd.Flags().StringVar(&verifyImage, "image", "", "image file to verify")
	verifyCmd.Flags().StringVar(&verifyUser, "user", "cli_user", "requester id recorded in history")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 5*time.Minute, "overall run timeout")
	verifyCmd.Flags().BoolVar(&verifyReport, "report", false, "print only the final report instead of JSON lines")
}

func runVerify(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(args, verifyType, verifyRole, verifyImage, verifyUser)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)

	ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	emit := func(e model.Event) {
		if !verifyReport {
			_ = enc.Encode(e)
		}
	}

	res, err := a.pipeline.Run(ctx, req, emit)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if verifyReport {
		fmt.Fprintln(out, res.Report)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return nil
}

// buildRequest assembles a request from command arguments
func buildRequest(args []string, inputType, role, imagePath, user string) (model.Request, error) {
	req := model.Request{
		RequesterID: user,
		UserRole:    model.ParseRole(role),
	}
	if len(args) > 0 {
		req.Text = args[0]
	}

	switch {
	case imagePath != "":
		data, err := imageDataURL(imagePath)
		if err != nil {
			return req, err
		}
		req.InputType = model.InputImage
		req.ImageData = data
	case inputType != "":
		req.InputType = model.ParseInputType(inputType)
	default:
		req.InputType = worker.InputTypeFor(req.Text)
	}

	if req.InputType != model.InputImage && strings.TrimSpace(req.Text) == "" {
		return req, fmt.Errorf("a claim or URL argument is required")
	}
	return req, nil
}

// imageDataURL reads an image file into a base64 data URL
func imageDataURL(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, 20<<20))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mediaType)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
