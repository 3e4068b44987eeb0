// Package policy resolves the deployment mechanism of a (table, domain) pair
// from the eligibility catalog.
package policy

import (
	"fmt"
	"sync"

	"github.com/diegofalves/ominideck/internal/config"
	"github.com/diegofalves/ominideck/internal/errs"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

type rule struct {
	deploymentType string
	allowedDomains []string
}

// Policy caches the eligibility catalog on first use.
type Policy struct {
	path string

	mu          sync.Mutex
	loaded      bool
	defaultType string
	rules       map[string]rule
}

// New creates a Policy backed by the eligibility catalog at path.
func New(path string) *Policy {
	return &Policy{path: path}
}

// FromCatalog creates a Policy over an already loaded catalog.
func FromCatalog(cat *models.EligibilityCatalog) *Policy {
	p := &Policy{}
	p.install(cat)
	return p
}

// DeploymentType resolves the deployment type of table in domain. With no
// rule and no default the result is "", which callers treat as "keep what
// you have". Errors only come from loading the catalog; a missing catalog is
// fatal.
func (p *Policy) DeploymentType(table, domain string) (string, error) {
	if err := p.load(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	// 1. Rule for the table
	r, ok := p.rules[utils.NormalizeToken(table)]
	if !ok {
		return p.defaultType, nil
	}

	// 2. Domain restriction
	if len(r.allowedDomains) > 0 {
		d := utils.NormalizeToken(domain)
		if d == "" || !utils.ContainsToken(r.allowedDomains, d) {
			return p.defaultType, nil
		}
	}

	// 3. Rule type, else default
	if r.deploymentType == "" {
		return p.defaultType, nil
	}
	return r.deploymentType, nil
}

// Invalidate forces the next resolution to reload the catalog.
func (p *Policy) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.path != "" {
		p.loaded = false
		p.rules = nil
	}
}

func (p *Policy) load() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return nil
	}

	var cat models.EligibilityCatalog
	if err := config.LoadJSON(p.path, "eligibility catalog", &cat); err != nil {
		return err
	}
	if cat.MetadataType != "" && cat.MetadataType != models.MetadataTypeEligibility {
		return errs.Parse(p.path, fmt.Errorf("unexpected metadataType %q", cat.MetadataType))
	}
	p.install(&cat)
	return nil
}

func (p *Policy) install(cat *models.EligibilityCatalog) {
	p.defaultType = utils.NormalizeToken(cat.DefaultDeploymentType)
	p.rules = make(map[string]rule, len(cat.Tables))
	for _, t := range cat.Tables {
		name := utils.NormalizeToken(t.TableName)
		if name == "" {
			continue
		}
		p.rules[name] = rule{
			deploymentType: utils.NormalizeToken(t.DeploymentType),
			allowedDomains: utils.UniqueTokens(t.AllowedDomains),
		}
	}
	p.loaded = true
}
