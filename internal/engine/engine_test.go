package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/enigma/internal/errmsg"
	"github.com/rubiojr/enigma/internal/rotor"
)

func TestConvertKnownCiphertext(t *testing.T) {
	m := Default()

	tests := []struct {
		name     string
		input    string
		settings Settings
		expected string
	}{
		{"Attack at dawn", "Attack at Dawn!", Settings{0, 0, 0}, "CKXGMWKVMUGX"},
		{"Hello world", "HELLOWORLD", Settings{3, 7, 12}, "TVMKTYFJZV"},
		{"Highest settings", "HELLOWORLD", Settings{25, 25, 25}, "PXJUEYNYMM"},
		{"Repeated letter", strings.Repeat("A", 30), Settings{0, 0, 0}, "COYGTJKKQUCJYJRMQQBZRERHKQUNFJ"},
		{"Empty", "", Settings{4, 5, 6}, ""},
		{"Only punctuation", "1234 !?", Settings{4, 5, 6}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := m.Convert(tt.input, tt.settings[0], tt.settings[1], tt.settings[2])
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestAttackAtDawnRoundTrip(t *testing.T) {
	m := Default()

	c0, err := m.Convert("Attack at Dawn!", 0, 0, 0)
	require.NoError(t, err)

	plain, err := m.Convert(c0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "ATTACKATDAWN", plain)
}

func TestSelfReciprocal(t *testing.T) {
	m := Default()
	// Long enough for rotor 2 to carry into rotor 3 several times.
	text := strings.Repeat("THEQUICKBROWNFOXJUMPSOVERTHELAZYDOG", 60)

	for _, s := range []Settings{{0, 0, 0}, {25, 25, 25}, {24, 24, 0}, {3, 7, 12}, {13, 0, 25}, {1, 2, 3}} {
		cipher, err := m.Convert(text, s[0], s[1], s[2])
		require.NoError(t, err)
		assert.Len(t, cipher, len(text))

		plain, err := m.Convert(cipher, s[0], s[1], s[2])
		require.NoError(t, err)
		assert.Equal(t, text, plain, "settings %v", s)
	}
}

func TestSelfReciprocalAllSettings(t *testing.T) {
	m := Default()
	text := "ENIGMAROTORSANDREFLECTORS"

	for s1 := 0; s1 <= MaxSetting; s1++ {
		for s2 := 0; s2 <= MaxSetting; s2 += 5 {
			for s3 := 0; s3 <= MaxSetting; s3 += 3 {
				cipher, err := m.Convert(text, s1, s2, s3)
				require.NoError(t, err)
				plain, err := m.Convert(cipher, s1, s2, s3)
				require.NoError(t, err)
				require.Equal(t, text, plain, "settings %d %d %d", s1, s2, s3)
			}
		}
	}
}

func TestNoLetterEncryptsToItself(t *testing.T) {
	m := Default()
	text := strings.Repeat("ABCDEFGHIJKLMNOPQRSTUVWXYZ", 40)

	cipher, err := m.Convert(text, 9, 18, 2)
	require.NoError(t, err)
	for i := range text {
		assert.NotEqual(t, text[i], cipher[i], "position %d", i)
	}
}

func TestNormalization(t *testing.T) {
	m := Default()
	assert.Equal(t, "ATTACKATDAWN", Normalize("Attack at Dawn!"))
	assert.Equal(t, "", Normalize("¿¡ 123 ñ"))

	mixed := "Hello, World! It's 9 o'clock."
	a, err := m.Convert(mixed, 5, 10, 15)
	require.NoError(t, err)
	b, err := m.Convert(Normalize(mixed), 5, 10, 15)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestConvertRangeErrors(t *testing.T) {
	m := Default()

	tests := []struct {
		settings Settings
		rotor    int
	}{
		{Settings{-1, 0, 0}, 1},
		{Settings{26, 0, 0}, 1},
		{Settings{0, -1, 0}, 2},
		{Settings{0, 26, 0}, 2},
		{Settings{0, 0, -1}, 3},
		{Settings{0, 0, 26}, 3},
		{Settings{100, 100, 100}, 1},
	}

	for _, tt := range tests {
		out, err := m.Convert("HELLO", tt.settings[0], tt.settings[1], tt.settings[2])
		assert.Empty(t, out)
		assert.ErrorIs(t, err, errmsg.ErrSettingOutOfRange)

		var rerr *errmsg.RangeError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, tt.rotor, rerr.Rotor, "settings %v", tt.settings)
		assert.Contains(t, err.Error(), "between 0 and 25")
	}
}

func TestDeterminism(t *testing.T) {
	m := Default()
	first, err := m.Convert("determinism check", 11, 22, 3)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := m.Convert("determinism check", 11, 22, 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		from Settings
		to   Settings
	}{
		{Settings{0, 0, 0}, Settings{1, 0, 0}},
		{Settings{23, 0, 0}, Settings{24, 0, 0}},
		{Settings{24, 0, 0}, Settings{0, 1, 0}},
		{Settings{25, 3, 0}, Settings{0, 4, 0}},
		{Settings{24, 24, 7}, Settings{0, 0, 8}},
		{Settings{24, 24, 25}, Settings{0, 0, 0}},
		{Settings{25, 25, 25}, Settings{0, 0, 0}},
	}
	for _, tt := range tests {
		s := tt.from
		s.step()
		assert.Equal(t, tt.to, s, "stepping from %v", tt.from)
	}
}

func TestConvertNormalizedFault(t *testing.T) {
	m := Default()
	_, err := m.ConvertNormalized("AB CD", Settings{0, 0, 0})
	assert.ErrorIs(t, err, errmsg.ErrEngineFault)
	assert.ErrorIs(t, err, errmsg.ErrInvalidSymbol)
}

func TestAlternateTables(t *testing.T) {
	bank, err := rotor.NewBank([]string{
		rotor.Rotor3Pattern,
		rotor.Rotor1Pattern,
		rotor.Rotor2Pattern,
	}, rotor.ReflectorPattern)
	require.NoError(t, err)

	alt := New(bank)
	assert.NotEqual(t, Default().Fingerprint(), alt.Fingerprint())
	assert.Equal(t, Default().Fingerprint(), New(rotor.Default()).Fingerprint())

	text := "ALTERNATETABLESSTILLROUNDTRIP"
	cipher, err := alt.Convert(text, 2, 4, 6)
	require.NoError(t, err)
	plain, err := alt.Convert(cipher, 2, 4, 6)
	require.NoError(t, err)
	assert.Equal(t, text, plain)

	def, err := Default().Convert(text, 2, 4, 6)
	require.NoError(t, err)
	assert.NotEqual(t, def, cipher)
}
