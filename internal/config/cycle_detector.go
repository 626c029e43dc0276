package config

import "sort"

// detectCycle returns the nodes participating in a dependency cycle, or nil
// if no cycle exists. Ported from the teacher's DFS-based detector; our
// steps carry no per-step enabled flag, so every step participates.
func detectCycle(steps []Step) []string {
	graph := make(map[string][]string, len(steps))
	for _, step := range steps {
		graph[step.Name] = append([]string(nil), step.DependsOn...)
	}

	visiting := make(map[string]bool, len(steps))
	visited := make(map[string]bool, len(steps))
	var stack []string

	var cycle []string
	var dfs func(string) bool
	dfs = func(node string) bool {
		visiting[node] = true
		stack = append(stack, node)

		for _, dep := range graph[node] {
			if !visited[dep] {
				if visiting[dep] {
					idx := indexOf(stack, dep)
					if idx >= 0 {
						cycle = append([]string{}, stack[idx:]...)
						cycle = append(cycle, dep)
					}
					return true
				}
				if dfs(dep) {
					return true
				}
			}
		}

		visiting[node] = false
		visited[node] = true
		stack = stack[:len(stack)-1]
		return false
	}

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if visited[name] {
			continue
		}
		if dfs(name) {
			break
		}
	}

	return cycle
}

func indexOf(slice []string, target string) int {
	for i, v := range slice {
		if v == target {
			return i
		}
	}
	return -1
}
