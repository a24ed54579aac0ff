package env

import "fmt"

func ExampleNewMapEnvFromEnvList() {
	env := NewMapEnvFromEnvList([]string{"A=B", "C=D", "E", "F=G=H", "A=later"})

	fmt.Printf("Environ(): %q\n", env.Environ())
	fmt.Printf("Getenv(\"F\"): %q\n", env.Getenv("F"))

	// Output: Environ(): ["A=later" "C=D" "E=" "F=G=H"]
	// Getenv("F"): "G=H"
}

func ExampleMapEnv_Unsetenv() {
	env := NewMapEnv()
	env.Unsetenv("missing")
	env.Setenv("A", "B")
	env.Setenv("C", "D")

	fmt.Println("Before:", env.Environ())
	env.Unsetenv("A")
	fmt.Println("After:", env.Environ())

	// Output: Before: [A=B C=D]
	// After: [C=D]
}

func ExampleMapEnv_LookupEnv() {
	env := NewMapEnv()
	env.Setenv("A", "B")
	env.Setenv("EMPTY", "")

	val, ok := env.LookupEnv("A")
	fmt.Println("Existing", "val:", val, "ok:", ok)
	val, ok = env.LookupEnv("EMPTY")
	fmt.Printf("Empty val: %q ok: %v\n", val, ok)
	val, ok = env.LookupEnv("B")
	fmt.Println("Missing", "val:", val, "ok:", ok)

	// Output: Existing val: B ok: true
	// Empty val: "" ok: true
	// Missing val:  ok: false
}

func ExampleMapEnv_Merge() {
	env := NewMapEnvFromEnvList([]string{"PATH=/bin", "HOME=/root"})
	env.Merge(map[string]string{"HOME": "/home/user", "LANG": "C"})

	fmt.Println(env.Environ())

	// Output: [HOME=/home/user LANG=C PATH=/bin]
}

func ExampleSplit() {
	for _, entry := range []string{"A=B", "A=B=C", "A"} {
		k, v := Split(entry)
		fmt.Printf("%q %q\n", k, v)
	}

	// Output: "A" "B"
	// "A" "B=C"
	// "A" ""
}
