package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/joho/godotenv"
	"github.com/mittwald/mittsmoke/internal/helper"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Resolver expands probe configuration values for one deployment target.
//
// A value of the form "ENV:NAME" is replaced by the environment variable NAME.
// Any other value containing "{{" is rendered as a Go template with the sprig
// function library; the template sees .Target, .Vars and .Env. Environment
// lookups consult the target's env file and inline env before the process
// environment.
type Resolver struct {
	target DeploymentTarget
	vars   map[string]string
	env    map[string]string
	funcs  template.FuncMap
}

type templateData struct {
	Target string
	Vars   map[string]string
	Env    map[string]string
}

func NewResolver(suite *Suite, t DeploymentTarget) (*Resolver, error) {
	tc, err := suite.Target(t)
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		target: t,
		vars:   make(map[string]string, len(tc.Vars)),
		env:    make(map[string]string),
	}

	if tc.EnvFile != "" {
		path := tc.EnvFile
		if !filepath.IsAbs(path) && suite.Dir != "" {
			path = filepath.Join(suite.Dir, path)
		}

		fileEnv, err := godotenv.Read(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read env file %s of target %q", path, t)
		}

		log.WithFields(log.Fields{"target": t.String(), "file": path, "count": len(fileEnv)}).Debug("loaded env file")
		for k, v := range fileEnv {
			r.env[k] = v
		}
	}

	for k, v := range tc.Env {
		r.env[k] = v
	}

	for k, v := range tc.Vars {
		r.vars[k] = v
	}

	r.funcs = sprig.TxtFuncMap()
	r.funcs["env"] = func(key string) string {
		v, _ := r.Lookup(key)
		return v
	}

	return r, nil
}

func (r *Resolver) Target() DeploymentTarget {
	return r.target
}

// Lookup returns the value of an environment variable as seen by probes of
// this target.
func (r *Resolver) Lookup(key string) (string, bool) {
	if v, ok := r.env[key]; ok {
		return v, true
	}
	return os.LookupEnv(key)
}

// Environ returns the process environment overlaid with the target's env.
func (r *Resolver) Environ() []string {
	env := os.Environ()
	for k, v := range r.env {
		env = append(env, k+"="+v)
	}
	return env
}

func (r *Resolver) Resolve(in string) (string, error) {
	if strings.HasPrefix(in, "ENV:") {
		return helper.ResolveEnv(in, r.Lookup), nil
	}

	if !strings.Contains(in, "{{") {
		return in, nil
	}

	tpl, err := template.New("value").Option("missingkey=error").Funcs(r.funcs).Parse(in)
	if err != nil {
		return "", errors.Wrapf(err, "invalid template %q", in)
	}

	var out bytes.Buffer
	if err := tpl.Execute(&out, r.data()); err != nil {
		return "", errors.Wrapf(err, "could not render %q for target %q", in, r.target)
	}

	return out.String(), nil
}

// ResolveAll resolves each element of in and returns a new slice.
func (r *Resolver) ResolveAll(in []string) ([]string, error) {
	if in == nil {
		return nil, nil
	}

	out := make([]string, len(in))
	for i := range in {
		v, err := r.Resolve(in[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ResolveMap resolves the values of in and returns a new map.
func (r *Resolver) ResolveMap(in map[string]string) (map[string]string, error) {
	if in == nil {
		return nil, nil
	}

	out := make(map[string]string, len(in))
	for k, v := range in {
		resolved, err := r.Resolve(v)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func (r *Resolver) data() templateData {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		kv := strings.SplitN(e, "=", 2)
		if len(kv) > 1 {
			env[kv[0]] = kv[1]
		}
	}
	for k, v := range r.env {
		env[k] = v
	}

	return templateData{
		Target: r.target.String(),
		Vars:   r.vars,
		Env:    env,
	}
}
