package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.RootDir) == "" {
		return errors.New("paths.root_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.SourceExt == "" {
		return errors.New("scan.source_ext must be set")
	}
	if strings.ContainsAny(c.Scan.SourceExt, `/\`) {
		return fmt.Errorf("scan.source_ext %q must not contain path separators", c.Scan.SourceExt)
	}
	return nil
}

func (c *Config) validateConversion() error {
	conv := c.Conversion
	if conv.TargetExt == "" {
		return errors.New("conversion.target_ext must be set")
	}
	if strings.ContainsAny(conv.TargetExt, `/\`) {
		return fmt.Errorf("conversion.target_ext %q must not contain path separators", conv.TargetExt)
	}
	if strings.EqualFold(conv.TargetExt, c.Scan.SourceExt) {
		return errors.New("conversion.target_ext must differ from scan.source_ext")
	}
	switch conv.Engine {
	case EngineFFmpeg:
		if conv.VideoCodec == "" {
			return errors.New("conversion.video_codec must be set for the ffmpeg engine")
		}
	case EngineDrapto:
		if conv.TargetExt != ".mkv" {
			return errors.New("conversion.target_ext must be .mkv when conversion.engine is drapto")
		}
	default:
		return fmt.Errorf("conversion.engine: unsupported value %q (expected %q or %q)", conv.Engine, EngineFFmpeg, EngineDrapto)
	}
	if err := ensurePositiveMap(map[string]int{
		"conversion.threads":     conv.Threads,
		"conversion.concurrency": conv.Concurrency,
	}); err != nil {
		return err
	}
	if conv.MaxJobs < 0 {
		return errors.New("conversion.max_jobs must be >= 0")
	}
	if conv.JobTimeout < 0 {
		return errors.New("conversion.job_timeout must be >= 0 (seconds)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	if n.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be >= 0 (seconds)")
	}
	if n.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(n.NtfyTopic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) URL", n.NtfyTopic)
	}
	return nil
}
