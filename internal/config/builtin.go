package config

// BuiltinRules returns the rule list used with --builtin when no rules file
// is wanted. It mirrors a typical four-monitor desk.
func BuiltinRules() []Rule {
	rules := []Rule{
		{Window: "crx_jmlfbgamfhbhiiimabijjiphfihdajkk", Screen: 1, Workspace: 0, Actions: []Action{ActionSticky, ActionFullscreen}},
		{Window: "slack", Screen: 1, Workspace: 0, Actions: []Action{ActionFullscreen, ActionSticky}},
		{Window: "keepassxc", Screen: 1, Workspace: 0, Actions: []Action{ActionFullscreen, ActionSticky}},
		{Window: "Google-chrome", Screen: 1, Workspace: 0, Actions: []Action{ActionFullscreen, ActionSticky}},
		{Window: "crx_blolepeanghapmhjfpjfbegpakcjphkb", Screen: 3, Workspace: 0, Actions: []Action{ActionFullscreen, ActionSticky}},
		{Window: "crx_dgpbecgflcafkafpebakapmjffajbdkc", Screen: 2, Workspace: 0, Actions: []Action{ActionFullscreen}},
		{Window: "thunderbird", Screen: 0, Workspace: 0, Actions: []Action{ActionFullscreen}},
		{Window: "jetbrains-idea", Screen: 2, Workspace: 1, Actions: []Action{ActionFullscreen}},
		{Window: "Wfica", Screen: 0, Workspace: 2},
		{Window: "selfservice", Screen: 1, Workspace: 2, Actions: []Action{ActionTopRight}},
		{Window: "code - insiders", Screen: 3, Workspace: 3, Actions: []Action{ActionSticky}},
	}
	for i := range rules {
		rules[i].ClassMatch = ClassMatchLegacy
	}
	return rules
}

// BuiltinConfig wraps BuiltinRules in a default config.
func BuiltinConfig() *Config {
	cfg := DefaultConfig()
	cfg.Rules = BuiltinRules()
	return cfg
}
