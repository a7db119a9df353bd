// Package config loads deployment and local-serve settings from the
// environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfigurationMissing is wrapped by every error about an absent setting.
var ErrConfigurationMissing = errors.New("configuration missing")

// Topology selects how the custom domain is wired to the API.
type Topology string

const (
	// TopologyRoute53 issues the certificate against a Route 53 hosted zone and
	// declares an alias record for the domain.
	TopologyRoute53 Topology = "route53"
	// TopologyExternalDNS uses an existing certificate and leaves DNS to
	// whoever manages the domain.
	TopologyExternalDNS Topology = "external-dns"
)

// Environment variable names.
const (
	EnvDomainName     = "DOMAIN_NAME"
	EnvHostedZoneID   = "HOSTED_ZONE_ID"
	EnvCertificateARN = "API_GATEWAY_CERTIFICATE_ARN"
	EnvRegion         = "CDK_DEFAULT_REGION"
	EnvAccount        = "CDK_DEFAULT_ACCOUNT"
	EnvTopology       = "AUTHGATE_TOPOLOGY"
	EnvStage          = "AUTHGATE_STAGE"
	EnvResultTTL      = "AUTHGATE_RESULT_TTL"
	EnvListen         = "AUTHGATE_LISTEN"
	EnvAPIID          = "AUTHGATE_API_ID"
	EnvLogLevel       = "LOG_LEVEL"
)

// Defaults.
const (
	DefaultStage     = "prod"
	DefaultResultTTL = 300 * time.Second
	DefaultListen    = ":3000"
	DefaultAPIID     = "local"
	DefaultLogLevel  = "info"
)

// MaxResultTTL is the largest authorizer result cache TTL API Gateway accepts.
const MaxResultTTL = time.Hour

// Deployment holds the settings consumed when the stack is synthesized.
type Deployment struct {
	DomainName     string
	HostedZoneID   string
	CertificateARN string
	Region         string
	Account        string
	Topology       Topology
	Stage          string
	ResultTTL      time.Duration
}

// Serve holds the settings of the local gateway.
type Serve struct {
	Listen    string
	APIID     string
	Stage     string
	Region    string
	Account   string
	ResultTTL time.Duration
	LogLevel  string
}

// New returns a viper instance bound to the authgate environment variables.
// When envFile is not empty it is loaded into the process environment first;
// variables already set in the environment win.
func New(envFile string) (*viper.Viper, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	bindings := map[string][]string{
		"domain_name":     {EnvDomainName},
		"hosted_zone_id":  {EnvHostedZoneID},
		"certificate_arn": {EnvCertificateARN},
		"region":          {EnvRegion, "AWS_REGION"},
		"account":         {EnvAccount, "AWS_ACCOUNT_ID"},
		"topology":        {EnvTopology},
		"stage":           {EnvStage},
		"result_ttl":      {EnvResultTTL},
		"listen":          {EnvListen},
		"api_id":          {EnvAPIID},
		"log_level":       {EnvLogLevel},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	v.SetDefault("stage", DefaultStage)
	v.SetDefault("result_ttl", DefaultResultTTL.String())
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("api_id", DefaultAPIID)
	v.SetDefault("log_level", DefaultLogLevel)

	return v, nil
}

// LoadDeployment reads and checks the deployment settings. Every absent
// setting is reported in one error; each wraps ErrConfigurationMissing.
func LoadDeployment(v *viper.Viper) (Deployment, error) {
	d := Deployment{
		DomainName:     strings.TrimSpace(v.GetString("domain_name")),
		HostedZoneID:   strings.TrimSpace(v.GetString("hosted_zone_id")),
		CertificateARN: strings.TrimSpace(v.GetString("certificate_arn")),
		Region:         strings.TrimSpace(v.GetString("region")),
		Account:        strings.TrimSpace(v.GetString("account")),
		Stage:          v.GetString("stage"),
	}

	var errs *multierror.Error

	ttl, err := ParseTTL(v.GetString("result_ttl"))
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	d.ResultTTL = ttl

	if d.DomainName == "" {
		errs = multierror.Append(errs, missing(EnvDomainName))
	}
	if d.Region == "" {
		errs = multierror.Append(errs, missing(EnvRegion))
	}
	if d.Account == "" {
		errs = multierror.Append(errs, missing(EnvAccount))
	}

	topology, err := selectTopology(Topology(v.GetString("topology")), d.HostedZoneID, d.CertificateARN)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	d.Topology = topology

	if err := errs.ErrorOrNil(); err != nil {
		return Deployment{}, err
	}
	return d, nil
}

// LoadServe reads the local gateway settings. Region and account default to
// placeholders since nothing is deployed.
func LoadServe(v *viper.Viper) (Serve, error) {
	s := Serve{
		Listen:   v.GetString("listen"),
		APIID:    v.GetString("api_id"),
		Stage:    v.GetString("stage"),
		Region:   v.GetString("region"),
		Account:  v.GetString("account"),
		LogLevel: v.GetString("log_level"),
	}
	if s.Region == "" {
		s.Region = "us-east-1"
	}
	if s.Account == "" {
		s.Account = "123456789012"
	}

	ttl, err := ParseTTL(v.GetString("result_ttl"))
	if err != nil {
		return Serve{}, err
	}
	s.ResultTTL = ttl
	return s, nil
}

// ParseTTL accepts a Go duration ("5m") or a bare number of seconds ("300").
// An empty value means DefaultResultTTL.
func ParseTTL(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultResultTTL, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("%s: negative ttl %d", EnvResultTTL, secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", EnvResultTTL, err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("%s: negative ttl %s", EnvResultTTL, ttl)
	}
	return ttl, nil
}

// selectTopology honours an explicit choice and otherwise prefers Route 53
// when a hosted zone is configured.
func selectTopology(forced Topology, hostedZoneID, certificateARN string) (Topology, error) {
	switch forced {
	case TopologyRoute53:
		if hostedZoneID == "" {
			return forced, missing(EnvHostedZoneID)
		}
		return forced, nil
	case TopologyExternalDNS:
		if certificateARN == "" {
			return forced, missing(EnvCertificateARN)
		}
		return forced, nil
	case "":
	default:
		return "", fmt.Errorf("%s: unknown topology %q (want %s or %s)", EnvTopology, forced, TopologyRoute53, TopologyExternalDNS)
	}

	switch {
	case hostedZoneID != "":
		return TopologyRoute53, nil
	case certificateARN != "":
		return TopologyExternalDNS, nil
	default:
		return "", missing(EnvHostedZoneID + " or " + EnvCertificateARN)
	}
}

func missing(name string) error {
	return fmt.Errorf("%w: %s", ErrConfigurationMissing, name)
}
